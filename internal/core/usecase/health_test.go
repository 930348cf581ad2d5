package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/akuzminsky/paperrag/internal/core/ports"
)

func healthUseCase(probers map[string]ports.HealthProber, openOps func() []string) *AnswerUseCase {
	return NewAnswerUseCase(
		newLimiterFake(), newCacheFake(), &embedderFake{}, &indexFake{}, &llmFake{}, nil,
		probers, openOps,
		AnswerOptions{},
	)
}

func TestHealthStatusAllHealthy(t *testing.T) {
	uc := healthUseCase(map[string]ports.HealthProber{
		"search": &proberFake{},
		"llm":    &proberFake{},
		"cache":  &proberFake{},
	}, nil)

	status := uc.HealthStatus(context.Background())
	if !status.OverallHealthy {
		t.Fatalf("overall unhealthy: %+v", status)
	}
	if len(status.Components) != 4 {
		t.Errorf("components = %d, want 4 (3 probes + breakers)", len(status.Components))
	}
}

func TestHealthStatusComponentFailure(t *testing.T) {
	uc := healthUseCase(map[string]ports.HealthProber{
		"search": &proberFake{err: errors.New("connection refused")},
		"llm":    &proberFake{},
	}, nil)

	status := uc.HealthStatus(context.Background())
	if status.OverallHealthy {
		t.Fatal("expected overall unhealthy")
	}
	if status.Components["search"].Healthy {
		t.Error("failing probe reported healthy")
	}
	if !strings.Contains(status.Components["search"].Detail, "connection refused") {
		t.Errorf("detail = %q", status.Components["search"].Detail)
	}
	if !status.Components["llm"].Healthy {
		t.Error("healthy probe reported unhealthy")
	}
}

func TestHealthStatusOpenBreaker(t *testing.T) {
	uc := healthUseCase(map[string]ports.HealthProber{
		"llm": &proberFake{},
	}, func() []string { return []string{"llm_generate"} })

	status := uc.HealthStatus(context.Background())
	if status.OverallHealthy {
		t.Fatal("open breaker must fail overall health")
	}
	breakers := status.Components["circuit_breakers"]
	if breakers.Healthy || !strings.Contains(breakers.Detail, "llm_generate") {
		t.Errorf("breaker component = %+v", breakers)
	}
}
