// Package trace records rewrite steps taken while canonicalising or
// transforming expressions, so a caller can replay how a result was derived.
package trace

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/symgolic/symgolic/expr"
)

var logger = slog.With("section", "trace")

// Step is one recorded rewrite: an expression before, an expression after,
// and a short description of the rule that fired.
type Step struct {
	Seq         int
	Description string
	Before      expr.Expr
	After       expr.Expr
}

func (s Step) String() string {
	return fmt.Sprintf("%d. %s: %s => %s", s.Seq, s.Description, s.Before, s.After)
}

// Recorder accumulates steps in the order they fired. It is safe for
// concurrent use; steps from concurrent pipelines interleave in arrival
// order under a single lock. A nil *Recorder discards everything, so
// callers can pass one through unconditionally.
type Recorder struct {
	id    uuid.UUID
	mu    sync.Mutex
	steps []Step
}

var _ expr.Tracer = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{id: uuid.New()}
}

// ID identifies this recorder across log lines.
func (r *Recorder) ID() uuid.UUID { return r.id }

func (r *Recorder) Record(description string, before, after expr.Expr) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	step := Step{
		Seq:         len(r.steps),
		Description: description,
		Before:      before,
		After:       after,
	}
	r.steps = append(r.steps, step)
	logger.Debug("rewrite step",
		"trace", r.id.String(),
		"seq", step.Seq,
		"rule", description,
	)
}

// Steps returns a copy of the recorded steps in firing order.
func (r *Recorder) Steps() []Step {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

func (r *Recorder) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.steps)
}

// Reset drops recorded steps but keeps the recorder identity.
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = r.steps[:0]
}

func (r *Recorder) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "trace %s\n", r.id)
	for _, s := range r.Steps() {
		fmt.Fprintf(&b, "  %s\n", s)
	}
	return b.String()
}
