// Package health aggregates component probes for GET /health.
package health

import (
	"context"
	"sync"
	"time"
)

// Status is the overall verdict.
type Status string

const (
	Healthy  Status = "ok"
	Degraded Status = "degraded"
)

// CheckResult is one component's verdict.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
	// CheckDisabled marks an optional component that is not configured. It never degrades.
	CheckDisabled CheckResult = "disabled"
)

const defaultProbeTimeout = 3 * time.Second

// Report is the outcome of one Check.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type probe struct {
	name string
	run  func(context.Context) error
}

// Service runs the configured probes.
type Service struct {
	probes  []probe
	llm     LLMStatus
	timeout time.Duration
}

// New builds a Service. embedding and llm may be nil, in which case their
// entries are left out of the report.
func New(db DBPinger, embedding EmbeddingChecker, llm LLMStatus) *Service {
	s := &Service{llm: llm, timeout: defaultProbeTimeout}
	s.probes = append(s.probes, probe{name: "database", run: db.Ping})
	if embedding != nil {
		s.probes = append(s.probes, probe{name: "embedding", run: embedding.HealthCheck})
	}
	return s
}

// Check runs every probe concurrently, each bounded by its own timeout.
func (s *Service) Check(ctx context.Context) Report {
	results := make([]CheckResult, len(s.probes))

	var wg sync.WaitGroup
	for i, p := range s.probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			results[i] = CheckOK
			if err := p.run(pctx); err != nil {
				results[i] = CheckError
			}
		}()
	}
	wg.Wait()

	report := Report{Status: Healthy, Checks: make(map[string]CheckResult, len(s.probes)+1)}
	for i, p := range s.probes {
		report.Checks[p.name] = results[i]
		if results[i] == CheckError {
			report.Status = Degraded
		}
	}
	if s.llm != nil {
		report.Checks["llm"] = CheckDisabled
		if s.llm.Configured() {
			report.Checks["llm"] = CheckOK
		}
	}
	return report
}
