// Package dedup derives the identity of a posting and tracks which ones a
// run has already collected.
package dedup

import (
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// namespace scopes the name-based UUIDs so IDs stay stable across deployments.
var namespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("jobs.devsunite.com"))

// normalize lower-cases, strips accents and collapses whitespace.
func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Key is the within-run identity of a posting: "Senior Engineer" at "Acme"
// and "senior  engineer" at "ACME" are the same job.
func Key(title, company string) string {
	return normalize(title) + "|" + normalize(company)
}

// ExternalID is the persistent identity of a posting, deterministic in its
// normalized title and company so repeated runs update rather than duplicate.
func ExternalID(title, company string) string {
	return uuid.NewSHA1(namespace, []byte(Key(title, company))).String()
}

// Tracker remembers keys seen during one run. Safe for concurrent use.
type Tracker struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]struct{})}
}

// Add records the posting and reports whether it was new.
func (t *Tracker) Add(title, company string) bool {
	key := Key(title, company)

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.seen[key]; exists {
		return false
	}
	t.seen[key] = struct{}{}
	return true
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}
