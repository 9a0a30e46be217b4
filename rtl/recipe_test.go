package rtl

import (
	"testing"

	"silica/bit"
	"silica/internal/netlist"
)

func countPrim(nl *netlist.Netlist, match func(netlist.Prim) bool) int {
	n := 0
	for _, net := range nl.Nets {
		if match(net.Prim) {
			n++
		}
	}
	return n
}

func TestSeqChainsDelays(t *testing.T) {
	m := New("t")
	steps := 0
	done := m.RunRecipe(Seq(
		Action(func() { steps++ }),
		Tick(),
		Action(func() { steps++ }),
	), m.Input("go", 1))
	if done.Width() != 1 {
		t.Fatalf("done pulse width %d, want 1", done.Width())
	}
	if steps != 2 {
		t.Fatalf("actions elaborated %d times, want 2", steps)
	}
	m.Output("done", done)
	nl := flatten(t, m)
	// Each of the three steps costs one pulse register.
	if got := countPrim(nl, func(p netlist.Prim) bool {
		_, ok := p.(netlist.Register)
		return ok
	}); got != 3 {
		t.Fatalf("expected 3 pulse registers, got %d", got)
	}
}

func TestWhileFeedsStartBackThroughWire(t *testing.T) {
	m := New("t")
	n := m.Reg(bit.Const(8, 10))
	body := Action(func() {
		n.Assign(n.Val().Sub(bit.Const(8, 1)))
	})
	done := m.RunOnce(While(n.Val().Gt(bit.Const(8, 0)), body))
	m.When(done, func() {
		m.Finish()
	})
	nl := flatten(t, m)
	if got := countPrim(nl, func(p netlist.Prim) bool {
		_, ok := p.(netlist.MergeWrites)
		return ok
	}); got == 0 {
		t.Fatalf("while loop should resolve its ready wire through a merge")
	}
	if got := countPrim(nl, func(p netlist.Prim) bool {
		_, ok := p.(netlist.Finish)
		return ok
	}); got != 1 {
		t.Fatalf("expected one finish event, got %d", got)
	}
}

func TestIfRecipeElaboratesBothArms(t *testing.T) {
	m := New("t")
	thenRan, elsRan := false, false
	cond := m.Input("c", 1)
	done := m.RunRecipe(IfR(cond,
		Action(func() { thenRan = true }),
		Action(func() { elsRan = true }),
	), m.Input("go", 1))
	m.Output("done", done)
	if !thenRan || !elsRan {
		t.Fatalf("both recipe arms must elaborate, got then=%v else=%v", thenRan, elsRan)
	}
	flatten(t, m)
}

func TestWaitStallsOnCondition(t *testing.T) {
	m := New("t")
	ready := m.Input("ready", 1)
	done := m.RunRecipe(Wait(ready), m.Input("go", 1))
	m.Output("done", done)
	nl := flatten(t, m)
	if got := countPrim(nl, func(p netlist.Prim) bool {
		r, ok := p.(netlist.Register)
		return ok && r.W == 1
	}); got == 0 {
		t.Fatalf("wait needs a busy register")
	}
}
