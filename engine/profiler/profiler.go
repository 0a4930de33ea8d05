package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/edaniels/golog"
)

// Stats summarizes the cost of one profiled session.
type Stats struct {
	// Name is the session label.
	Name string
	// Duration is the wall time between Begin and End.
	Duration time.Duration
	// AllocMB is the cumulative heap allocation during the session.
	AllocMB float64
	// HeapMB is the live heap at the end of the session.
	HeapMB float64
	// GCCount is the number of collections that ran during the session.
	GCCount uint32
	// MaxPauseUs is the longest GC pause observed during the session.
	MaxPauseUs uint64
}

// Profiler measures load sessions and logs their duration and memory statistics.
type Profiler struct {
	mu       sync.Mutex
	logger   golog.Logger
	sessions int
}

// Session is an in-flight measurement started by Profiler.Begin.
type Session struct {
	p              *Profiler
	name           string
	start          time.Time
	startTotal     uint64
	startGCCount   uint32
	ended          bool
	lastStatistics Stats
}

// NewProfiler creates a new Profiler that reports to logger.
//
// Parameters:
//   - logger: the logger to report finished sessions to
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger golog.Logger) *Profiler {
	return &Profiler{logger: logger}
}

// Begin starts measuring a session.
//
// Parameters:
//   - name: the session label
//
// Returns:
//   - *Session: the running session
func (p *Profiler) Begin(name string) *Session {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	p.mu.Lock()
	p.sessions++
	p.mu.Unlock()

	return &Session{
		p:            p,
		name:         name,
		start:        time.Now(),
		startTotal:   ms.TotalAlloc,
		startGCCount: ms.NumGC,
	}
}

// Sessions returns the number of sessions started so far.
func (p *Profiler) Sessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions
}

// End stops the session and logs its statistics with the extra key/value pairs in fields.
// Calling End more than once returns the first result without logging again.
//
// Parameters:
//   - fields: additional structured log fields
//
// Returns:
//   - Stats: the session statistics
func (s *Session) End(fields ...any) Stats {
	if s.ended {
		return s.lastStatistics
	}
	s.ended = true

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	// PauseNs is a circular buffer of the last 256 GC pauses
	var maxPauseUs uint64
	startIdx := s.startGCCount
	if ms.NumGC-startIdx > 256 {
		startIdx = ms.NumGC - 256
	}
	for i := startIdx; i < ms.NumGC; i++ {
		if pause := ms.PauseNs[i%256] / 1000; pause > maxPauseUs {
			maxPauseUs = pause
		}
	}

	stats := Stats{
		Name:       s.name,
		Duration:   time.Since(s.start),
		AllocMB:    float64(ms.TotalAlloc-s.startTotal) / 1024 / 1024,
		HeapMB:     float64(ms.Alloc) / 1024 / 1024,
		GCCount:    ms.NumGC - s.startGCCount,
		MaxPauseUs: maxPauseUs,
	}
	s.lastStatistics = stats

	if s.p.logger != nil {
		kv := append([]any{
			"session", stats.Name,
			"duration", stats.Duration,
			"alloc_mb", stats.AllocMB,
			"heap_mb", stats.HeapMB,
			"gc", stats.GCCount,
			"max_pause_us", stats.MaxPauseUs,
		}, fields...)
		s.p.logger.Infow("load session finished", kv...)
	}
	return stats
}
