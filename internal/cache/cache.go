// Package cache keeps rendered lunch reports between requests.
package cache

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"lunchreports/internal/core"
)

type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Purge drops every entry, e.g. after an order changes the totals.
	Purge() int
	Size() int
}

var _ Cache[[]byte] = (*LRUCache[[]byte])(nil)

// Rendered is a report as it was written to the client.
type Rendered struct {
	Body        []byte
	ContentType string
	Filename    string
}

// ReportKey identifies one rendering of a report. Item selections are
// compared as sets since reports list items in natural order anyway.
func ReportKey(kind core.ReportKind, format string, items []string) string {
	names := slices.Clone(items)
	slices.Sort(names)
	names = slices.Compact(names)
	return string(kind) + "|" + format + "|" + strings.Join(names, "\x1f")
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps expired entries from registered caches.
type Manager struct {
	caches      []Cleaner
	logger      *slog.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	stopOnce    sync.Once
	started     bool
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:      logger,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.cleanup(interval)
}

// Sweep cleans every registered cache once and returns the entries removed.
func (m *Manager) Sweep() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug("Report cache cleanup completed", "entries_removed", n)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCleanup)
		if m.started {
			<-m.cleanupDone
		}
	})
}
