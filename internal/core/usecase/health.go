package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

const probeTimeout = 2 * time.Second

// HealthStatus probes every registered downstream concurrently and folds
// open circuit breakers into the picture. Overall health requires every
// component healthy and no breaker open.
func (uc *AnswerUseCase) HealthStatus(ctx context.Context) domain.HealthStatus {
	components := make(map[string]domain.ComponentStatus, len(uc.probers)+1)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, prober := range uc.probers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()

			status := domain.ComponentStatus{Healthy: true}
			if err := prober.Probe(probeCtx); err != nil {
				status = domain.ComponentStatus{Healthy: false, Detail: err.Error()}
			}
			mu.Lock()
			components[name] = status
			mu.Unlock()
		}()
	}
	wg.Wait()

	if open := uc.openOps(); len(open) > 0 {
		components["circuit_breakers"] = domain.ComponentStatus{
			Healthy: false,
			Detail:  "open: " + strings.Join(open, ", "),
		}
	} else {
		components["circuit_breakers"] = domain.ComponentStatus{Healthy: true}
	}

	overall := true
	for _, status := range components {
		if !status.Healthy {
			overall = false
			break
		}
	}
	return domain.HealthStatus{
		OverallHealthy: overall,
		Components:     components,
	}
}
