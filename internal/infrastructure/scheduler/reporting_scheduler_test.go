package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appreport "github.com/microlend/backend/internal/application/report"
	"github.com/microlend/backend/internal/infrastructure/persistence/memory"
)

func newScheduler(interval time.Duration) *ReportingScheduler {
	reporting := appreport.NewReportingService(
		memory.NewMemoryCustomerRepository(),
		memory.NewMemoryProposalRepository(),
		memory.NewMemoryOfferRepository(),
		memory.NewMemoryProductRepository(),
	)
	return NewReportingScheduler(reporting, zap.NewNop(), interval)
}

func TestReportingScheduler_RunOnce(t *testing.T) {
	s := newScheduler(time.Hour)
	before := s.LastRun()

	require.NoError(t, s.RunOnce(context.Background()))

	assert.True(t, s.LastRun().After(before) || s.LastRun().Equal(before))
}

func TestReportingScheduler_StartStop(t *testing.T) {
	s := newScheduler(10 * time.Millisecond)
	ctx := context.Background()

	s.Start(ctx)
	started := s.LastRun()

	assert.Eventually(t, func() bool {
		return s.LastRun().After(started)
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()
}

func TestReportingScheduler_DefaultInterval(t *testing.T) {
	s := newScheduler(0)
	assert.Equal(t, time.Hour, s.interval)
}

func TestReportingScheduler_StopIsIdempotent(t *testing.T) {
	s := newScheduler(time.Hour)
	s.Start(context.Background())

	s.Stop()
	s.Stop()
}
