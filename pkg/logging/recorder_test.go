package logging

import "sync"

type record struct {
	level  string
	msg    string
	fields []Field
}

// recorder is an in-memory Logger for decorator tests.
type recorder struct {
	mu       sync.Mutex
	records  []record
	requests []APIRequestLog
	base     []Field
	closeErr error
}

func (r *recorder) log(level, msg string, fields []Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record{level, msg, append(append([]Field{}, r.base...), fields...)})
}

func (r *recorder) Info(msg string, fields ...Field)  { r.log("info", msg, fields) }
func (r *recorder) Warn(msg string, fields ...Field)  { r.log("warn", msg, fields) }
func (r *recorder) Error(msg string, fields ...Field) { r.log("error", msg, fields) }
func (r *recorder) Debug(msg string, fields ...Field) { r.log("debug", msg, fields) }

func (r *recorder) WithFields(fields ...Field) Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.base = append(r.base, fields...)
	return r
}

func (r *recorder) LogAPIRequest(req APIRequestLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
}

func (r *recorder) LogAPIResponse(APIResponseLog) {}
func (r *recorder) Close() error                  { return r.closeErr }
