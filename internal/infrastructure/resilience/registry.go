package resilience

import "sort"

// Registry presents several executors as one breaker surface: admin
// endpoints and health checks see every guarded operation regardless of
// which executor owns it.
type Registry struct {
	executors []*Executor
}

func NewRegistry(executors ...*Executor) *Registry {
	return &Registry{executors: executors}
}

func (r *Registry) Stats() map[string]BreakerStats {
	out := map[string]BreakerStats{}
	for _, executor := range r.executors {
		for operation, stats := range executor.Stats() {
			out[operation] = stats
		}
	}
	return out
}

func (r *Registry) Reset(operation string) {
	for _, executor := range r.executors {
		executor.Reset(operation)
	}
}

func (r *Registry) ResetAll() {
	for _, executor := range r.executors {
		executor.ResetAll()
	}
}

// OpenOperations lists operations whose breaker is open, sorted for
// stable health output.
func (r *Registry) OpenOperations() []string {
	var open []string
	for operation, stats := range r.Stats() {
		if stats.State == "open" {
			open = append(open, operation)
		}
	}
	sort.Strings(open)
	return open
}
