package propagation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/curatai/curatai/internal/metrics"
)

const (
	DefaultInterval = time.Second
	DefaultMaxPolls = 60
)

// StatusFetcher reads the current status of a job.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, jobID int64) (JobStatus, error)
}

// Outcome is how a wait ended.
type Outcome int

const (
	Succeeded Outcome = iota
	Failed
	// TimedOut means the attempt budget ran out; the job itself may still
	// complete later.
	TimedOut
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	default:
		return "cancelled"
	}
}

// Result summarizes a wait.
type Result struct {
	Outcome Outcome
	Polls   int
	Last    JobStatus
}

// Poller polls a job at a fixed interval for at most MaxPolls attempts.
// Timer is injectable so tests run without real delay.
type Poller struct {
	Fetch    StatusFetcher
	Interval time.Duration
	MaxPolls int
	Timer    retry.Timer
	Metrics  *metrics.Metrics
}

var errNotFinished = errors.New("job not finished")

// Wait polls until the job is terminal, the budget is exhausted or ctx is
// cancelled. The only error returned is a failure to fetch the status.
func (p *Poller) Wait(ctx context.Context, jobID int64) (*Result, error) {
	m := metrics.OrNoop(p.Metrics)
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxPolls := p.MaxPolls
	if maxPolls <= 0 {
		maxPolls = DefaultMaxPolls
	}

	res := &Result{}
	var (
		terminal  bool
		succeeded bool
		fetchErr  error
	)
	opts := []retry.Option{
		retry.Attempts(uint(maxPolls)),
		retry.Delay(interval),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	}
	if p.Timer != nil {
		opts = append(opts, retry.WithTimer(p.Timer))
	}

	_ = retry.Do(func() error {
		res.Polls++
		m.PropagationPolls.Inc()
		st, err := p.Fetch.FetchStatus(ctx, jobID)
		if err != nil {
			fetchErr = err
			return retry.Unrecoverable(err)
		}
		res.Last = st
		terminal, succeeded = st.Terminal()
		if terminal {
			return nil
		}
		return errNotFinished
	}, opts...)

	switch {
	case fetchErr != nil:
		return nil, fetchErr
	case terminal && succeeded:
		res.Outcome = Succeeded
	case terminal:
		res.Outcome = Failed
	case ctx.Err() != nil:
		res.Outcome = Cancelled
	default:
		res.Outcome = TimedOut
	}
	m.PropagationOutcomes.WithLabelValues(res.Outcome.String()).Inc()
	log.Ctx(ctx).Info().
		Int64("job_id", jobID).
		Int("polls", res.Polls).
		Str("outcome", res.Outcome.String()).
		Str("status", string(res.Last.Status)).
		Str("state", string(res.Last.State)).
		Msg("propagation wait finished")
	return res, nil
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
