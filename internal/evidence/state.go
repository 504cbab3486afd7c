package evidence

import (
	"context"
	"fmt"
	"time"
)

// Stage is the position of one submission in the pipeline.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageUploading  Stage = "uploading"
	StageExtracting Stage = "extracting"
	StagePersisting Stage = "persisting"
	StageSucceeded  Stage = "succeeded"
	StageFailed     Stage = "failed"
)

func (s Stage) String() string { return string(s) }

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool {
	return s == StageSucceeded || s == StageFailed
}

var allowedTransitions = map[Stage][]Stage{
	StageIdle:       {StageUploading, StageFailed},
	StageUploading:  {StageExtracting, StageFailed},
	StageExtracting: {StagePersisting, StageFailed},
	StagePersisting: {StageSucceeded, StageFailed},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Stage) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition is one recorded move, with the failure that caused it if any.
type Transition struct {
	From  Stage         `json:"from"`
	To    Stage         `json:"to"`
	At    time.Time     `json:"at"`
	Spent time.Duration `json:"-"`
	Err   *Error        `json:"-"`
}

// Observer is told about every transition. Implementations must not block.
type Observer interface {
	OnTransition(ctx context.Context, t Transition)
}

type nopObserver struct{}

func (nopObserver) OnTransition(context.Context, Transition) {}

// Tracker owns the stage of a single submission. It is not safe for
// concurrent use; each submission gets its own.
type Tracker struct {
	stage     Stage
	enteredAt time.Time
	history   []Transition
	observer  Observer
	now       func() time.Time
}

func NewTracker(observer Observer, now func() time.Time) *Tracker {
	if observer == nil {
		observer = nopObserver{}
	}
	if now == nil {
		now = time.Now
	}
	return &Tracker{stage: StageIdle, enteredAt: now(), observer: observer, now: now}
}

func (t *Tracker) Stage() Stage { return t.stage }

// History returns a copy of the recorded transitions.
func (t *Tracker) History() []Transition {
	out := make([]Transition, len(t.history))
	copy(out, t.history)
	return out
}

// Advance moves to the next non-failure stage.
func (t *Tracker) Advance(ctx context.Context, to Stage) error {
	if to == StageFailed {
		return fmt.Errorf("use Fail to enter %s", StageFailed)
	}
	return t.move(ctx, to, nil)
}

// Fail moves to failed and records cause. The returned error is cause itself
// unless the move was illegal.
func (t *Tracker) Fail(ctx context.Context, cause *Error) error {
	if cause == nil {
		return fmt.Errorf("failure cause is required")
	}
	cause.Stage = t.stage
	if err := t.move(ctx, StageFailed, cause); err != nil {
		return err
	}
	return cause
}

func (t *Tracker) move(ctx context.Context, to Stage, cause *Error) error {
	if !CanTransition(t.stage, to) {
		return fmt.Errorf("illegal evidence transition %s -> %s", t.stage, to)
	}
	now := t.now()
	tr := Transition{From: t.stage, To: to, At: now, Spent: now.Sub(t.enteredAt), Err: cause}
	t.history = append(t.history, tr)
	t.stage = to
	t.enteredAt = now
	t.observer.OnTransition(ctx, tr)
	return nil
}
