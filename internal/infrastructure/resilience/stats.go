package resilience

import (
	"sync"
	"time"
)

// BreakerStats is the externally visible snapshot for one guarded operation.
type BreakerStats struct {
	Operation            string    `json:"operation"`
	State                string    `json:"state"`
	TotalRequests        int64     `json:"total_requests"`
	TotalFailures        int64     `json:"total_failures"`
	TotalTimeouts        int64     `json:"total_timeouts"`
	TotalSlowCalls       int64     `json:"total_slow_calls"`
	SlowCallRate         float64   `json:"slow_call_rate"`
	ConsecutiveFailures  uint32    `json:"consecutive_failures"`
	ConsecutiveSuccesses uint32    `json:"consecutive_successes"`
	LastFailureTime      time.Time `json:"last_failure_time,omitzero"`
	LastSuccessTime      time.Time `json:"last_success_time,omitzero"`
}

type operationStats struct {
	mu              sync.Mutex
	totalRequests   int64
	totalFailures   int64
	totalTimeouts   int64
	totalSlowCalls  int64
	lastFailureTime time.Time
	lastSuccessTime time.Time
}

func (s *operationStats) record(_ time.Duration, err error, timedOut, slow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests++
	if slow {
		s.totalSlowCalls++
	}
	if timedOut {
		s.totalTimeouts++
	}
	if err != nil {
		s.totalFailures++
		s.lastFailureTime = time.Now()
		return
	}
	s.lastSuccessTime = time.Now()
}

func (s *operationStats) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalRequests = 0
	s.totalFailures = 0
	s.totalTimeouts = 0
	s.totalSlowCalls = 0
	s.lastFailureTime = time.Time{}
	s.lastSuccessTime = time.Time{}
}

func (e *Executor) operationStats(operation string) *operationStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	if stats, ok := e.stats[operation]; ok {
		return stats
	}
	stats := &operationStats{}
	e.stats[operation] = stats
	return stats
}

// Stats snapshots every operation the executor has guarded so far.
func (e *Executor) Stats() map[string]BreakerStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]BreakerStats, len(e.stats))
	for operation, stats := range e.stats {
		snapshot := BreakerStats{Operation: operation, State: "closed"}

		if breaker, ok := e.breakers[operation]; ok {
			snapshot.State = breaker.State().String()
			counts := breaker.Counts()
			snapshot.ConsecutiveFailures = counts.ConsecutiveFailures
			snapshot.ConsecutiveSuccesses = counts.ConsecutiveSuccesses
		}

		stats.mu.Lock()
		snapshot.TotalRequests = stats.totalRequests
		snapshot.TotalFailures = stats.totalFailures
		snapshot.TotalTimeouts = stats.totalTimeouts
		snapshot.TotalSlowCalls = stats.totalSlowCalls
		if stats.totalRequests > 0 {
			snapshot.SlowCallRate = float64(stats.totalSlowCalls) / float64(stats.totalRequests)
		}
		snapshot.LastFailureTime = stats.lastFailureTime
		snapshot.LastSuccessTime = stats.lastSuccessTime
		stats.mu.Unlock()

		out[operation] = snapshot
	}
	return out
}

// Reset forces an operation back to closed with zeroed counters. The
// breaker instance is replaced since gobreaker has no public reset.
func (e *Executor) Reset(operation string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.breakers, operation)
	if stats, ok := e.stats[operation]; ok {
		stats.reset()
	}
}

// ResetAll resets every guarded operation.
func (e *Executor) ResetAll() {
	e.mu.Lock()
	operations := make([]string, 0, len(e.stats))
	for operation := range e.stats {
		operations = append(operations, operation)
	}
	e.mu.Unlock()

	for _, operation := range operations {
		e.Reset(operation)
	}
}
