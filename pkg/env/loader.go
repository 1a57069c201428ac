// Package env loads credentials for the agent, GitHub and
// generator collaborators from the process environment and an
// optional .env file. Process variables always win over the file.
package env

import (
	"bufio"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Loader defines the interface for environment variable management.
type Loader interface {
	// Load reads environment variables from a .env file.
	Load(filepath string) error
	// Get retrieves an environment variable value.
	Get(key string) string
	// GetRequired retrieves a required environment variable or returns error.
	GetRequired(key string) (string, error)
	// GetWithDefault retrieves an environment variable with a default fallback.
	GetWithDefault(key, defaultValue string) string
	// GetAPIKey retrieves an API key for a named provider.
	GetAPIKey(provider string) string
	// Secrets returns every known credential value that is set.
	Secrets() []string
}

// DefaultLoader implements Loader with .env file support and provider mappings.
type DefaultLoader struct {
	mu       sync.RWMutex
	vars     map[string]string
	loaded   bool
	mappings map[string][]string // provider name -> env var names, first set wins
}

// NewLoader creates a DefaultLoader with the harness's provider
// mappings.
func NewLoader() *DefaultLoader {
	return &DefaultLoader{
		vars: make(map[string]string),
		mappings: map[string][]string{
			"anthropic": {"ANTHROPIC_API_KEY"},
			"claude":    {"ANTHROPIC_API_KEY"},
			"github":    {"GITHUB_TOKEN", "GH_TOKEN"},
			"speakeasy": {"SPEAKEASY_API_KEY"},
		},
	}
}

// LoadOptional reads path if it exists. A missing file is not an
// error.
func (l *DefaultLoader) LoadOptional(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return l.Load(path)
}

func (l *DefaultLoader) Load(filepath string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(filepath)
	if err != nil {
		return errors.Wrapf(err, "open env file %s", filepath)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		l.vars[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"'`)
	}

	l.loaded = true
	return errors.Wrap(scanner.Err(), "scan env file")
}

func (l *DefaultLoader) Get(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.vars[key]
}

func (l *DefaultLoader) GetRequired(key string) (string, error) {
	v := l.Get(key)
	if v == "" {
		return "", errors.Errorf("required environment variable %s is not set", key)
	}
	return v, nil
}

func (l *DefaultLoader) GetWithDefault(key, defaultValue string) string {
	if v := l.Get(key); v != "" {
		return v
	}
	return defaultValue
}

func (l *DefaultLoader) GetAPIKey(provider string) string {
	l.mu.RLock()
	vars, ok := l.mappings[strings.ToLower(provider)]
	l.mu.RUnlock()
	if !ok {
		vars = []string{strings.ToUpper(provider) + "_API_KEY"}
	}
	for _, v := range vars {
		if key := l.Get(v); key != "" {
			return key
		}
	}
	return ""
}

func (l *DefaultLoader) Secrets() []string {
	l.mu.RLock()
	seen := make(map[string]struct{})
	for _, vars := range l.mappings {
		for _, v := range vars {
			seen[v] = struct{}{}
		}
	}
	l.mu.RUnlock()

	var secrets []string
	for v := range seen {
		if s := l.Get(v); s != "" {
			secrets = append(secrets, s)
		}
	}
	sort.Strings(secrets)
	return secrets
}
