package trace

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/symgolic/symgolic/expr"
)

func TestRecorderOrdersSteps(t *testing.T) {
	r := NewRecorder()
	x := expr.Var("x")
	r.Record("fold", expr.Plus(expr.Int(1), expr.Int(1)), expr.Int(2))
	r.Record("collect", expr.Plus(x, x), expr.Times(expr.Int(2), x))

	steps := r.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, 0, steps[0].Seq)
	assert.Equal(t, "fold", steps[0].Description)
	assert.Equal(t, 1, steps[1].Seq)
	assert.True(t, expr.Equal(steps[1].After, expr.Times(expr.Int(2), x)))
}

func TestRecorderCapturesCanonSteps(t *testing.T) {
	r := NewRecorder()
	x := expr.Var("x")
	out := expr.CanonTraced(expr.NewAdd(x, x, x), r)

	assert.True(t, expr.Equal(out, expr.Times(expr.Int(3), x)))
	assert.Greater(t, r.Len(), 0, "collecting like terms should leave a trace")
	for _, s := range r.Steps() {
		assert.False(t, expr.Equal(s.Before, s.After), "only real rewrites are recorded")
	}
}

func TestRecorderConcurrent(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Record("step", expr.Int(0), expr.Int(1))
			}
		}()
	}
	wg.Wait()

	steps := r.Steps()
	require.Len(t, steps, 400)
	for i, s := range steps {
		assert.Equal(t, i, s.Seq)
	}
}

func TestNilRecorderIsNoOp(t *testing.T) {
	var r *Recorder
	r.Record("step", expr.Int(0), expr.Int(1))
	assert.Nil(t, r.Steps())
	assert.Equal(t, 0, r.Len())
	r.Reset()
}

func TestRecorderReset(t *testing.T) {
	r := NewRecorder()
	id := r.ID()
	r.Record("step", expr.Int(0), expr.Int(1))
	r.Reset()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, id, r.ID())
}
