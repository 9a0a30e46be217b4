package rtl

import (
	"silica/bit"
	"silica/internal/diag"
)

// Recipe is a small sequential state-machine language layered on the
// elaborator. A recipe starts on a one-cycle go pulse and produces a
// one-cycle done pulse; combinators compose pulses, so sequencing
// costs no extra state beyond the actions themselves.
type Recipe interface {
	run(m *Module, start bit.Bit) bit.Bit
}

type actionRecipe struct{ body func() }
type tickRecipe struct{}
type seqRecipe struct{ steps []Recipe }
type whileRecipe struct {
	cond bit.Bit
	body Recipe
}
type ifRecipe struct {
	cond      bit.Bit
	then, els Recipe
}
type waitRecipe struct{ cond bit.Bit }

// Action runs body for one cycle when the recipe reaches it.
func Action(body func()) Recipe { return &actionRecipe{body: body} }

// Tick idles for one cycle.
func Tick() Recipe { return &tickRecipe{} }

// Seq runs steps one after another.
func Seq(steps ...Recipe) Recipe { return &seqRecipe{steps: steps} }

// While repeats body as long as cond holds, testing before each pass.
func While(cond bit.Bit, body Recipe) Recipe {
	return &whileRecipe{cond: cond, body: body}
}

// IfR runs then when cond holds and els otherwise. els may be nil.
func IfR(cond bit.Bit, then, els Recipe) Recipe {
	return &ifRecipe{cond: cond, then: then, els: els}
}

// Wait stalls until cond holds.
func Wait(cond bit.Bit) Recipe { return &waitRecipe{cond: cond} }

// RunRecipe elaborates r, starting it on the start pulse, and returns
// the done pulse.
func (m *Module) RunRecipe(r Recipe, start bit.Bit) bit.Bit {
	m.checkOpen()
	if start.Width() != 1 {
		diag.Fatalf(diag.WidthMismatch, "recipe start pulse must be 1 bit, got %d", start.Width())
	}
	return r.run(m, start)
}

// RunOnce starts r on the first cycle after reset and returns the done
// pulse.
func (m *Module) RunOnce(r Recipe) bit.Bit {
	first := m.Reg(bit.Const(1, 1)).Named("recipe_start")
	first.Assign(bit.Const(1, 0))
	return m.RunRecipe(r, first.Val())
}

func (r *actionRecipe) run(m *Module, start bit.Bit) bit.Bit {
	m.When(start, r.body)
	return m.delayPulse(start)
}

func (r *tickRecipe) run(m *Module, start bit.Bit) bit.Bit {
	return m.delayPulse(start)
}

func (r *seqRecipe) run(m *Module, start bit.Bit) bit.Bit {
	done := start
	for _, step := range r.steps {
		done = step.run(m, done)
	}
	return done
}

// While compiles to a ready wire fed both by the start pulse and by
// the body's done pulse; the wire resolves through the two-pass
// variable mechanism, which is what lets the done pulse appear in its
// own definition.
func (r *whileRecipe) run(m *Module, start bit.Bit) bit.Bit {
	if r.cond.Width() != 1 {
		diag.Fatalf(diag.WidthMismatch, "while condition must be 1 bit, got %d", r.cond.Width())
	}
	ready := m.Wire(bit.Const(1, 0)).Named("while_ready")
	bodyDone := r.body.run(m, ready.Val().And(r.cond))
	ready.Assign(start.Or(bodyDone))
	return ready.Val().And(r.cond.Not())
}

func (r *ifRecipe) run(m *Module, start bit.Bit) bit.Bit {
	if r.cond.Width() != 1 {
		diag.Fatalf(diag.WidthMismatch, "if condition must be 1 bit, got %d", r.cond.Width())
	}
	doneThen := r.then.run(m, start.And(r.cond))
	if r.els == nil {
		return doneThen.Or(start.And(r.cond.Not()))
	}
	doneEls := r.els.run(m, start.And(r.cond.Not()))
	return doneThen.Or(doneEls)
}

func (r *waitRecipe) run(m *Module, start bit.Bit) bit.Bit {
	if r.cond.Width() != 1 {
		diag.Fatalf(diag.WidthMismatch, "wait condition must be 1 bit, got %d", r.cond.Width())
	}
	busy := m.Reg(bit.Const(1, 0)).Named("wait_busy")
	m.When(start.And(r.cond.Not()), func() {
		busy.Assign(bit.Const(1, 1))
	})
	fire := start.Or(busy.Val()).And(r.cond)
	m.When(busy.Val().And(r.cond), func() {
		busy.Assign(bit.Const(1, 0))
	})
	return fire
}

// delayPulse registers a 1-bit pulse by one cycle.
func (m *Module) delayPulse(p bit.Bit) bit.Bit {
	d := m.Reg(bit.Const(1, 0))
	d.Assign(p)
	return d.Val()
}
