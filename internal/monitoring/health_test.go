package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHealthManager_AllUp(t *testing.T) {
	m := NewHealthManager(time.Second,
		Check{Name: "database", Critical: true, Run: func(context.Context) error { return nil }},
		Check{Name: "cache", Run: func(context.Context) error { return nil }},
	)

	report := m.Evaluate(context.Background())
	require.True(t, report.Healthy())
	require.Len(t, report.Checks, 2)
	require.Equal(t, "database", report.Checks[0].Component)
}

func TestHealthManager_NonCriticalFailureDegrades(t *testing.T) {
	m := NewHealthManager(time.Second,
		Check{Name: "database", Critical: true, Run: func(context.Context) error { return nil }},
		Check{Name: "cache", Run: func(context.Context) error { return errors.New("connection refused") }},
	)

	report := m.Evaluate(context.Background())
	require.Equal(t, StatusDegraded, report.Status)
	require.Equal(t, StatusDown, report.Checks[1].Status)
	require.Equal(t, "connection refused", report.Checks[1].Details)
}

func TestHealthManager_CriticalFailureIsDown(t *testing.T) {
	m := NewHealthManager(time.Second,
		Check{Name: "cache", Run: func(context.Context) error { return errors.New("boom") }},
		Check{Name: "database", Critical: true, Run: func(context.Context) error { panic("driver crashed") }},
	)

	report := m.Evaluate(context.Background())
	require.Equal(t, StatusDown, report.Status)
	require.Contains(t, report.Checks[1].Details, "driver crashed")
}

func TestHealthManager_TimeoutDegradesProbe(t *testing.T) {
	m := NewHealthManager(10*time.Millisecond, Check{Name: "slow", Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})

	report := m.Evaluate(context.Background())
	require.Equal(t, StatusDegraded, report.Checks[0].Status)
}

func TestHealthManager_IgnoresIncompleteChecks(t *testing.T) {
	m := NewHealthManager(0, Check{Name: ""}, Check{Name: "nil-run"})
	require.Empty(t, m.Evaluate(context.Background()).Checks)
}

func TestHealthManager_RunsChecksConcurrently(t *testing.T) {
	release := make(chan struct{})
	waiter := func(ctx context.Context) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m := NewHealthManager(time.Second,
		Check{Name: "a", Run: waiter},
		Check{Name: "b", Run: waiter},
		Check{Name: "closer", Run: func(context.Context) error { close(release); return nil }},
	)

	report := m.Evaluate(context.Background())
	require.True(t, report.Healthy(), "%+v", report.Checks)
	require.Equal(t, []string{"a", "b", "closer"}, []string{
		report.Checks[0].Component, report.Checks[1].Component, report.Checks[2].Component,
	})
}
