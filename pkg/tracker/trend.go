package tracker

import "github.com/pkg/errors"

// ErrNoData is returned when there is no record to summarise.
var ErrNoData = errors.New("no results found")

// Series is one metric across a window of runs.
type Series struct {
	Latest float64 `json:"latest"`
	Avg    float64 `json:"avg"`
	// Values are ordered most recent first.
	Values []float64 `json:"trend"`
}

func newSeries(values []float64) Series {
	s := Series{Values: values}
	if s.Values == nil {
		s.Values = []float64{}
	}
	if len(values) == 0 {
		return s
	}
	s.Latest = values[0]
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	s.Avg = sum / float64(len(values))
	return s
}

// Trend summarises the most recent runs.
type Trend struct {
	Count     int    `json:"count"`
	PassRate  Series `json:"pass_rate"`
	CostUSD   Series `json:"cost_usd"`
	SkillRate Series `json:"skill_invocation_rate"`
	// AvgTurns only covers runs that recorded turn usage.
	AvgTurns Series `json:"avg_turns"`
}

// TrendSummary summarises up to n of the newest records.
func (t *Tracker) TrendSummary(n int) (*Trend, error) {
	records, err := t.RecentResults(n)
	if err != nil {
		return nil, err
	}
	return Summarize(records)
}

// Summarize computes the trend of records, newest first.
func Summarize(records []*Record) (*Trend, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	var passRates, costs, skillRates, turns []float64
	for _, rec := range records {
		res := rec.Results
		s := summarize(res.Details)
		passRates = append(passRates, res.PassRate)
		costs = append(costs, s.cost)

		if len(res.Details) == 0 {
			skillRates = append(skillRates, 0)
			continue
		}
		skillRates = append(skillRates, float64(s.invoked)/float64(len(res.Details)))
		if s.withTurn > 0 {
			turns = append(turns, s.avgTurns())
		}
	}

	return &Trend{
		Count:     len(records),
		PassRate:  newSeries(passRates),
		CostUSD:   newSeries(costs),
		SkillRate: newSeries(skillRates),
		AvgTurns:  newSeries(turns),
	}, nil
}
