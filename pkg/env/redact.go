package env

import (
	"net/url"
	"strings"
)

// RedactAPIKey masks an API key, showing only the first 4 and last 4 characters.
func RedactAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// RedactURL masks credentials and token query parameters in a URL.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.User != nil {
		if password, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), RedactAPIKey(password))
		} else if name := u.User.Username(); name != "" {
			// https://<token>@github.com/owner/repo clone URLs
			u.User = url.User(RedactAPIKey(name))
		}
	}
	q := u.Query()
	for _, k := range []string{"access_token", "token"} {
		if v := q.Get(k); v != "" {
			q.Set(k, RedactAPIKey(v))
		}
	}
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// sensitiveHeaders are masked by RedactHeaders, matched in lower case.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"x-api-key":           true,
	"api-key":             true,
	"x-auth-token":        true,
	"cookie":              true,
	"set-cookie":          true,
	"proxy-authorization": true,
}

// RedactHeaders returns a copy of headers with credential values
// masked.
func RedactHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	result := make(map[string]string, len(headers))
	for k, v := range headers {
		if sensitiveHeaders[strings.ToLower(k)] {
			v = RedactAPIKey(v)
		}
		result[k] = v
	}
	return result
}

// ValidateAPIKeyFormat checks if a credential matches a known
// Anthropic or GitHub token format.
func ValidateAPIKeyFormat(key string) bool {
	if key == "" {
		return false
	}
	knownPrefixes := []string{
		"sk-ant-",     // Anthropic
		"ghp_",        // GitHub classic PAT
		"github_pat_", // GitHub fine-grained PAT
		"gho_",        // GitHub OAuth (gh auth token)
		"ghs_",        // GitHub Actions
	}
	for _, prefix := range knownPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	// If no known prefix, accept if length >= 20
	return len(key) >= 20
}
