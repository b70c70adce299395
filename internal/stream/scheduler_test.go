package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaward-labs/echoline/internal/domain"
	"github.com/seaward-labs/echoline/pkg/log"
)

// fakeKernel records its inputs and returns a canned window.
type fakeKernel struct {
	win      *domain.ProcessedWindow
	err      error
	gotPile  *domain.Pile
	gotMile  float64
	gotCalls int
}

func (f *fakeKernel) Process(ctx context.Context, pile *domain.Pile, fromMile float64) (*domain.ProcessedWindow, error) {
	f.gotPile = pile
	f.gotMile = fromMile
	f.gotCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.win, nil
}

func schedulerPile(transect, pings int, nm0, nmSpan float64) *domain.Pile {
	u := clockUnit(time.Unix(1000, 0), pings, nm0, nmSpan)
	u.Transect = transect
	return domain.NewPile(u)
}

func TestSchedulerSkipsStationaryPile(t *testing.T) {
	s := NewScheduler(1, &fakeKernel{}, log.NewNoopLogger())

	out, err := s.Evaluate(context.Background(), schedulerPile(-1, 10, 0, 2), nil, domain.CarryState{})
	require.NoError(t, err)
	assert.Equal(t, DecisionSkip, out.Decision)
}

func TestSchedulerWaitsBelowDistanceThreshold(t *testing.T) {
	k := &fakeKernel{}
	s := NewScheduler(1, k, log.NewNoopLogger())

	out, err := s.Evaluate(context.Background(), schedulerPile(1, 10, 0, 0.999), nil, domain.CarryState{})
	require.NoError(t, err)
	assert.Equal(t, DecisionWait, out.Decision)
	assert.Zero(t, k.gotCalls)
}

func TestSchedulerProcessesQualifiedPile(t *testing.T) {
	win := &domain.ProcessedWindow{
		Valid:      []bool{true, true, true, false},
		ResumeMile: 1,
	}
	k := &fakeKernel{win: win}
	s := NewScheduler(1, k, log.NewNoopLogger())

	pile := schedulerPile(1, 10, 0, 1.5)
	out, err := s.Evaluate(context.Background(), pile, nil, domain.CarryState{})
	require.NoError(t, err)
	assert.Equal(t, DecisionProcessed, out.Decision)
	assert.Same(t, win, out.Window)
	assert.Equal(t, 0.0, k.gotMile, "fresh pile bins from zero")
	assert.Equal(t, 1.0, out.Carry.LastMile)
	assert.Equal(t, 1, out.Carry.TrailPings)
}

func TestSchedulerJoinsTrailAndResumesBinning(t *testing.T) {
	win := &domain.ProcessedWindow{Valid: []bool{true}, ResumeMile: 3}
	k := &fakeKernel{win: win}
	s := NewScheduler(1, k, log.NewNoopLogger())

	pile := schedulerPile(2, 10, 2, 1.5)
	trail := schedulerPile(2, 4, 1.8, 0.2)

	_, err := s.Evaluate(context.Background(), pile, trail, domain.CarryState{TrailPings: 4, LastMile: 2, Transect: 2})
	require.NoError(t, err)
	assert.Equal(t, 14, k.gotPile.Pings(), "trail pings prepended")
	assert.Equal(t, 2.0, k.gotMile, "binning resumes at the carried mile")
}

func TestSchedulerResumesWithoutTrailPings(t *testing.T) {
	// A fully valid previous window carries no pings, but its mile counter
	// must still advance: the already-reported bins are never re-binned.
	win := &domain.ProcessedWindow{Valid: []bool{true}, ResumeMile: 3}
	k := &fakeKernel{win: win}
	s := NewScheduler(1, k, log.NewNoopLogger())

	pile := schedulerPile(1, 10, 2, 1.5)
	out, err := s.Evaluate(context.Background(), pile, nil, domain.CarryState{LastMile: 2, Transect: 1})
	require.NoError(t, err)
	assert.Equal(t, DecisionProcessed, out.Decision)
	assert.Equal(t, 2.0, k.gotMile, "mile counter resumes with an empty trail")
	assert.Equal(t, 10, k.gotPile.Pings())
}

func TestSchedulerIgnoresTrailFromAnotherTransect(t *testing.T) {
	win := &domain.ProcessedWindow{Valid: []bool{true}, ResumeMile: 1}
	k := &fakeKernel{win: win}
	s := NewScheduler(1, k, log.NewNoopLogger())

	pile := schedulerPile(3, 10, 0, 1.5)
	trail := schedulerPile(2, 4, 1.8, 0.2)

	_, err := s.Evaluate(context.Background(), pile, trail, domain.CarryState{TrailPings: 4, LastMile: 2, Transect: 2})
	require.NoError(t, err)
	assert.Equal(t, 10, k.gotPile.Pings())
	assert.Equal(t, 0.0, k.gotMile)
}

func TestSchedulerWrapsKernelFailure(t *testing.T) {
	k := &fakeKernel{err: errors.New("boom")}
	s := NewScheduler(1, k, log.NewNoopLogger())

	_, err := s.Evaluate(context.Background(), schedulerPile(1, 10, 0, 1.5), nil, domain.CarryState{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProcessing))
}

func TestNextCarry(t *testing.T) {
	cases := []struct {
		name  string
		valid []bool
		want  int
	}{
		{"all valid", []bool{true, true, true}, 0},
		{"trailing open bin", []bool{true, true, false, false}, 2},
		{"leading context", []bool{false, true, true}, 1},
		{"both edges", []bool{false, false, true, false, false, false}, 5},
		{"all invalid", []bool{false, false, false}, 0},
		{"empty", nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextCarry(&domain.ProcessedWindow{Valid: tc.valid, Transect: 4, ResumeMile: 7})
			assert.Equal(t, tc.want, got.TrailPings)
			assert.Equal(t, 7.0, got.LastMile)
			assert.Equal(t, 4, got.Transect)
		})
	}
}
