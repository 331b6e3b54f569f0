package security

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// Redactor replaces secrets in strings with RedactPlaceholder. Patterns catch
// secrets by shape (session cookies, bot tokens, bearer values); literals
// catch the exact values held in a CredentialStore.
// All methods are safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor creates a Redactor pre-loaded with DefaultPatterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: DefaultPatterns(),
	}
}

// AddLiteral adds a literal secret value that should be redacted on sight.
// Empty strings are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = longestFirst(append(slices.Clone(r.literals), secret))
}

// SyncCredentials replaces all literal values with the current contents
// of the credential store. The store is read under the redactor lock, so
// the last sync to run always sees the latest credentials.
func (r *Redactor) SyncCredentials(store *CredentialStore) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = longestFirst(store.Values())
}

// TrackCredentials syncs the literals with store now and after every change.
func (r *Redactor) TrackCredentials(store *CredentialStore) {
	r.SyncCredentials(store)
	store.OnChange(func() { r.SyncCredentials(store) })
}

// Redact replaces every pattern match and literal value in s with
// RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	for _, p := range patterns {
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}
	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, RedactPlaceholder)
		}
	}
	return s
}

// longestFirst orders literals so a token is replaced before any shorter
// token it contains; otherwise the longer one would leak its remainder.
func longestFirst(literals []string) []string {
	slices.SortFunc(literals, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})
	return literals
}

// DefaultPatterns returns compiled regex patterns for the secrets this
// program handles: rewards-service session cookies, Telegram bot tokens
// and bearer tokens.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Session cookies: ltoken, ltoken_v2, cookie_token, cookie_token_v2, ltmid_v2.
		regexp.MustCompile(`(?i)\b(ltoken(_v2)?|cookie_token(_v2)?|ltmid_v2)=[^;\s"]+`),
		// Telegram bot token: <bot id>:<35 char hash>, also inside /bot<token>/ URLs.
		regexp.MustCompile(`\d{6,}:[A-Za-z0-9_-]{30,}`),
		// Authorization header values.
		regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]{8,}`),
	}
}
