package solve

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/bodul/strands/internal/board"
	"github.com/bodul/strands/internal/logx"
	"github.com/bodul/strands/internal/model"
)

// State is a step of the submission lifecycle.
type State int

const (
	Idle State = iota
	Validating
	Submitting
	Succeeded
	Failed
)

var stateNames = [...]string{"idle", "validating", "submitting", "succeeded", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown solve state %q", b)
}

// Result is either a list of solutions or a failure. The zero Result means
// nothing has been submitted yet.
type Result struct {
	Solutions []model.Solution
	Err       error
}

// Failed reports whether the result is a failure.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Snapshot is a consistent copy of the orchestrator state.
type Snapshot struct {
	State      State            `json:"state"`
	Generation uint64           `json:"generation"`
	Solutions  []model.Solution `json:"solutions,omitempty"`
	Error      string           `json:"error,omitempty"`
	Result     Result           `json:"-"`
}

// Params are the user-supplied solving parameters.
type Params struct {
	WordCount        int
	Forbidden        string
	FindAllSolutions bool
}

// Orchestrator runs submissions against a Service. It is safe for concurrent
// use; the latest submission always wins.
type Orchestrator struct {
	svc Service

	mu        sync.Mutex
	notifyMu  sync.Mutex // held while listeners run; taken before mu is released
	state     State
	result    Result
	gen       uint64
	cancel    context.CancelFunc
	listeners []func(Snapshot)
}

// NewOrchestrator returns an idle orchestrator.
func NewOrchestrator(svc Service) *Orchestrator {
	return &Orchestrator{svc: svc}
}

// OnChange registers fn to be called after every visible transition.
// Callbacks run on the submitting goroutine, outside the state lock, one at a
// time and in transition order. fn must not call back into the Orchestrator.
func (o *Orchestrator) OnChange(fn func(Snapshot)) {
	o.mu.Lock()
	o.listeners = append(o.listeners, fn)
	o.mu.Unlock()
}

// Snapshot returns the current state and result.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	return Snapshot{
		State:      o.state,
		Generation: o.gen,
		Solutions:  o.result.Solutions,
		Error:      Message(o.result.Err),
		Result:     o.result,
	}
}

// Submit validates g, posts it and blocks until the reply. The grid is only
// read. The returned snapshot is the visible state once the call settles; if
// a newer submission started meanwhile, its state is returned and this
// call's reply is discarded.
func (o *Orchestrator) Submit(ctx context.Context, g *board.Grid, p Params) Snapshot {
	logger := logx.FromContext(ctx)

	o.mu.Lock()
	o.gen++
	gen := o.gen
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.mu.Unlock()

	snap, _ := o.update(gen, func() {
		o.result = Result{}
		o.state = Validating
	})
	if !g.IsComplete() {
		logger.Debug("submission rejected", zap.Uint64("generation", gen), zap.Error(ErrIncompleteGrid))
		snap, _ = o.update(gen, func() {
			o.state = Failed
			o.result = Result{Err: ErrIncompleteGrid}
		})
		return snap
	}

	req := model.Request{
		Grid:             g.Rows(),
		WordCount:        p.WordCount,
		Forbidden:        ParseForbidden(p.Forbidden),
		FindAllSolutions: p.FindAllSolutions,
	}
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	snap, current := o.update(gen, func() {
		o.cancel = cancel
		o.state = Submitting
	})
	if !current {
		return snap
	}
	logger.Debug("submitting board",
		zap.Uint64("generation", gen),
		zap.Int("wordcount", req.WordCount),
		zap.Strings("forbidden", req.Forbidden),
		zap.Bool("find_all", req.FindAllSolutions))

	solutions, err := o.svc.Solve(callCtx, req)

	snap, current = o.update(gen, func() {
		o.cancel = nil
		if err != nil {
			o.state = Failed
			o.result = Result{Err: err}
			return
		}
		o.state = Succeeded
		o.result = Result{Solutions: solutions}
	})
	switch {
	case !current:
		logger.Debug("discarding superseded reply", zap.Uint64("generation", gen), zap.Uint64("current", snap.Generation))
	case err != nil:
		logger.Warn("solve failed", zap.Uint64("generation", gen), zap.Error(err))
	default:
		logger.Info("solve succeeded", zap.Uint64("generation", gen), zap.Int("solutions", len(solutions)))
	}
	return snap
}

// Reset cancels any call in flight and returns to Idle with no result.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.gen++
	gen := o.gen
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.mu.Unlock()
	o.update(gen, func() {
		o.state = Idle
		o.result = Result{}
	})
}

// update applies fn under the lock when gen is still the latest submission,
// then notifies listeners outside the lock. It reports whether fn ran.
func (o *Orchestrator) update(gen uint64, fn func()) (Snapshot, bool) {
	o.mu.Lock()
	if gen != o.gen {
		snap := o.snapshotLocked()
		o.mu.Unlock()
		return snap, false
	}
	fn()
	snap := o.snapshotLocked()
	listeners := o.listeners
	o.notifyMu.Lock()
	o.mu.Unlock()
	for _, l := range listeners {
		l(snap)
	}
	o.notifyMu.Unlock()
	return snap, true
}
