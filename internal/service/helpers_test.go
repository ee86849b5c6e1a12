package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	clock       *clockwork.FakeClock
	hits        *memHits
	limits      *memLimits
	configStore *memConfig
	users       *memUsers
	config      *ConfigService
	ledger      *UsageLedger
	admission   *AdmissionController
	allocation  *AllocationService
	opts        []Option
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := clockwork.NewFakeClockAt(epoch)
	opts := []Option{
		WithClock(clock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}

	env := &testEnv{
		clock:       clock,
		hits:        &memHits{},
		limits:      newMemLimits(),
		configStore: newMemConfig(),
		opts:        opts,
	}
	env.users = newMemUsers(env.limits)
	env.config = NewConfigService(env.configStore, opts...)
	require.NoError(t, env.config.SeedDefaults(context.Background()))

	env.ledger = NewUsageLedger(env.hits, opts...)
	env.admission = NewAdmissionController(env.config, env.ledger, env.limits, opts...)
	env.allocation = NewAllocationService(env.config, env.limits, opts...)

	return env
}
