// Package caselog keeps a bounded, expiring in-memory log of recent consults so that
// transports can hand out case identifiers. Nothing is persisted.
package caselog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/fuo-consult-server/internal/domain"
	"github.com/fuo-consult-server/internal/service"
)

// Entry is one recorded consult.
type Entry struct {
	ID        string                 `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	Result    *service.ConsultResult `json:"result"`
}

// Summary is the listing shape of an entry.
type Summary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	TopCandidate string    `json:"top_candidate,omitempty"`
	TopScore     int       `json:"top_score,omitempty"`
	Candidates   int       `json:"candidates"`
	PlanTests    int       `json:"plan_tests"`
}

// Log is safe for concurrent use.
type Log struct {
	cache  *expirable.LRU[string, *Entry]
	logger *logrus.Logger
}

// New creates a log holding at most maxItems entries, each for at most ttl.
func New(logger *logrus.Logger, maxItems int, ttl time.Duration) (*Log, error) {
	if maxItems <= 0 {
		return nil, fmt.Errorf("case log size must be positive: %d", maxItems)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("case log ttl must be positive: %s", ttl)
	}

	l := &Log{logger: logger}
	l.cache = expirable.NewLRU[string, *Entry](maxItems, func(id string, _ *Entry) {
		l.logger.WithField("case_id", id).Debug("Case evicted")
	}, ttl)
	return l, nil
}

// FromConfig creates a log from configuration. It returns nil when the log is disabled.
func FromConfig(logger *logrus.Logger, cfg domain.CaseLogConfig) (*Log, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return New(logger, cfg.MaxItems, cfg.TTL)
}

// Record stores a consult result and returns its new case id.
func (l *Log) Record(result *service.ConsultResult) string {
	entry := &Entry{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Result:    result,
	}
	l.cache.Add(entry.ID, entry)
	return entry.ID
}

// Get returns a recorded consult. Expired or evicted cases wrap domain.ErrNotFound.
func (l *Log) Get(id string) (*Entry, error) {
	entry, ok := l.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("case %q: %w", id, domain.ErrNotFound)
	}
	return entry, nil
}

// Recent returns up to n summaries, newest first. n <= 0 returns all live entries.
func (l *Log) Recent(n int) []Summary {
	keys := l.cache.Keys()
	out := make([]Summary, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if n > 0 && len(out) == n {
			break
		}
		entry, ok := l.cache.Peek(keys[i])
		if !ok {
			continue
		}
		out = append(out, summarize(entry))
	}
	return out
}

// Len returns the number of live entries.
func (l *Log) Len() int {
	return l.cache.Len()
}

func summarize(e *Entry) Summary {
	s := Summary{ID: e.ID, CreatedAt: e.CreatedAt}
	if e.Result == nil {
		return s
	}
	s.Candidates = len(e.Result.Candidates)
	s.PlanTests = e.Result.Plan.Len()
	if len(e.Result.Candidates) > 0 {
		s.TopCandidate = e.Result.Candidates[0].Name
		s.TopScore = e.Result.Candidates[0].Score
	}
	return s
}
