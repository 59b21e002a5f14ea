package propagation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatai/curatai/internal/metrics"
)

// instantTimer fires immediately and records every requested delay.
type instantTimer struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (t *instantTimer) After(d time.Duration) <-chan time.Time {
	t.mu.Lock()
	t.delays = append(t.delays, d)
	t.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// scriptedFetcher replays statuses and repeats the last one forever.
type scriptedFetcher struct {
	statuses []JobStatus
	err      error
	calls    int
	onCall   func(n int)
}

func (f *scriptedFetcher) FetchStatus(ctx context.Context, jobID int64) (JobStatus, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall(f.calls)
	}
	if f.err != nil {
		return JobStatus{}, f.err
	}
	i := f.calls - 1
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	st := f.statuses[i]
	st.ID = jobID
	return st, nil
}

func running() JobStatus { return JobStatus{Status: "running", State: StateRunning} }

func TestWaitSucceedsOnThirdPoll(t *testing.T) {
	fetch := &scriptedFetcher{statuses: []JobStatus{
		running(),
		running(),
		{Status: StatusSucceeded, State: StateFinished},
	}}
	timer := &instantTimer{}
	m := metrics.New()
	p := &Poller{Fetch: fetch, Timer: timer, Metrics: m}

	res, err := p.Wait(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, Succeeded, res.Outcome)
	assert.Equal(t, 3, res.Polls)
	assert.Equal(t, 3, fetch.calls)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, timer.delays)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PropagationPolls))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PropagationOutcomes.WithLabelValues("succeeded")))
}

func TestWaitTimesOutAfterBudget(t *testing.T) {
	fetch := &scriptedFetcher{statuses: []JobStatus{running()}}
	timer := &instantTimer{}
	p := &Poller{Fetch: fetch, Timer: timer}

	res, err := p.Wait(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, TimedOut, res.Outcome)
	assert.Equal(t, 60, res.Polls)
	assert.Equal(t, 60, fetch.calls)
	// no sleep after the last attempt
	assert.Len(t, timer.delays, 59)
}

func TestWaitTerminalStates(t *testing.T) {
	tests := []struct {
		name   string
		status JobStatus
		want   Outcome
	}{
		{"partial success finished", JobStatus{Status: StatusPartialSuccess, State: StateFinished}, Succeeded},
		{"failed while running", JobStatus{Status: StatusFailed, State: StateRunning}, Failed},
		{"did not start", JobStatus{Status: StatusDidNotStart}, Failed},
		{"skipped", JobStatus{Status: StatusSkipped, State: StateFinished}, Failed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetch := &scriptedFetcher{statuses: []JobStatus{tt.status}}
			p := &Poller{Fetch: fetch, Timer: &instantTimer{}}
			res, err := p.Wait(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Outcome)
			assert.Equal(t, 1, res.Polls)
		})
	}
}

func TestSucceededButRunningKeepsPolling(t *testing.T) {
	fetch := &scriptedFetcher{statuses: []JobStatus{
		{Status: StatusSucceeded, State: StateRunning},
		{Status: StatusSucceeded, State: StateFinished},
	}}
	p := &Poller{Fetch: fetch, Timer: &instantTimer{}}
	res, err := p.Wait(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Succeeded, res.Outcome)
	assert.Equal(t, 2, res.Polls)
}

func TestWaitFetchError(t *testing.T) {
	boom := errors.New("connection reset")
	fetch := &scriptedFetcher{err: boom}
	p := &Poller{Fetch: fetch, Timer: &instantTimer{}}
	_, err := p.Wait(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, fetch.calls)
}

func TestWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fetch := &scriptedFetcher{
		statuses: []JobStatus{running()},
		onCall: func(n int) {
			if n == 1 {
				cancel()
			}
		},
	}
	// a timer that never fires, so only cancellation can end the wait
	p := &Poller{Fetch: fetch, Timer: blockingTimer{}, MaxPolls: 10}
	res, err := p.Wait(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Cancelled, res.Outcome)
	assert.Equal(t, 1, res.Polls)
}

type blockingTimer struct{}

func (blockingTimer) After(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

func TestCustomIntervalAndBudget(t *testing.T) {
	fetch := &scriptedFetcher{statuses: []JobStatus{running()}}
	timer := &instantTimer{}
	p := &Poller{Fetch: fetch, Timer: timer, Interval: 250 * time.Millisecond, MaxPolls: 3}
	res, err := p.Wait(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, TimedOut, res.Outcome)
	assert.Equal(t, 3, res.Polls)
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, timer.delays)
}
