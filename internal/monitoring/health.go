// Package monitoring evaluates dependency health for the /health endpoint.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

type ProbeStatus string

const (
	StatusUp       ProbeStatus = "up"
	StatusDegraded ProbeStatus = "degraded"
	StatusDown     ProbeStatus = "down"
)

// ProbeResult is the outcome of one Check.
type ProbeResult struct {
	Component string        `json:"component"`
	Status    ProbeStatus   `json:"status"`
	Details   string        `json:"details,omitempty"`
	Duration  time.Duration `json:"duration"`
}

type HealthReport struct {
	Status    ProbeStatus   `json:"status"`
	Checks    []ProbeResult `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

func (r HealthReport) Healthy() bool { return r.Status == StatusUp }

// Check probes one dependency. A failing Critical check takes the whole
// report down; any other failure only degrades it.
type Check struct {
	Name     string
	Critical bool
	Run      func(ctx context.Context) error
}

// HealthManager runs its checks concurrently, each under its own timeout.
type HealthManager struct {
	checks  []Check
	timeout time.Duration
	now     func() time.Time
}

func NewHealthManager(timeout time.Duration, checks ...Check) *HealthManager {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	m := &HealthManager{timeout: timeout, now: time.Now}
	for _, check := range checks {
		m.Register(check)
	}
	return m
}

// Register adds check unless it has no name or no probe function.
func (m *HealthManager) Register(check Check) {
	if check.Name != "" && check.Run != nil {
		m.checks = append(m.checks, check)
	}
}

// Evaluate runs every check and folds the results into one report. Results
// keep registration order.
func (m *HealthManager) Evaluate(ctx context.Context) HealthReport {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]ProbeResult, len(m.checks))
	var g errgroup.Group
	for i, check := range m.checks {
		g.Go(func() error {
			results[i] = m.probe(ctx, check)
			return nil
		})
	}
	_ = g.Wait()

	report := HealthReport{Status: StatusUp, Checks: results, CheckedAt: m.now().UTC()}
	for i, res := range results {
		report.Status = worse(report.Status, effective(res.Status, m.checks[i].Critical))
	}
	return report
}

func (m *HealthManager) probe(ctx context.Context, check Check) (res ProbeResult) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	res.Component = check.Name
	defer func() {
		if rec := recover(); rec != nil {
			res.Status, res.Details = StatusDown, fmt.Sprintf("panic: %v", rec)
		}
		res.Duration = time.Since(start)
	}()

	switch err := check.Run(ctx); {
	case err == nil:
		res.Status = StatusUp
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		res.Status, res.Details = StatusDegraded, err.Error()
	default:
		res.Status, res.Details = StatusDown, err.Error()
	}
	return res
}

// effective maps a probe status onto its contribution to the overall report.
func effective(status ProbeStatus, critical bool) ProbeStatus {
	switch {
	case status == StatusUp:
		return StatusUp
	case critical:
		return StatusDown
	default:
		return StatusDegraded
	}
}

var severity = map[ProbeStatus]int{StatusUp: 0, StatusDegraded: 1, StatusDown: 2}

func worse(a, b ProbeStatus) ProbeStatus {
	if severity[b] > severity[a] {
		return b
	}
	return a
}
