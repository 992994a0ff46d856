package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"regioncore/pkg/runtime"
)

// scenario is one of the named closures spec.md §8 walks through by hand.
// Each builds a small object graph, drives it through the reference
// protocol, and returns an error if the expected outcome is not observed:
// s1-s3 check that the heap drained back to its checkpoint, s4 that both
// objects froze, s5 that the conflicting parent assignment aborted, and s6
// that the move left x's reference count unchanged. The corresponding
// _test.go cases in pkg/runtime check the same outcomes; they are run here
// instead for a human to read the mermaid diagram of.
type scenario struct {
	name string
	run  func(rt *runtime.Runtime) error
}

var scenarios = []scenario{
	{"s1", scenarioS1},
	{"s2", scenarioS2},
	{"s3", scenarioS3},
	{"s4", scenarioS4},
	{"s5", scenarioS5},
	{"s6", scenarioS6},
}

func findScenario(name string) (scenario, bool) {
	for _, s := range scenarios {
		if s.name == name {
			return s, true
		}
	}
	return scenario{}, false
}

func scenarioS1(rt *runtime.Runtime) error {
	checkpoint := rt.Checkpoint()

	a := rt.MakeObject(nil)
	b := rt.MakeObject(nil)
	rt.Set(a, "f", b)
	rt.RemoveReference(nil, b)

	bridge := rt.CreateRegion()
	rt.AddReference(bridge, a)
	rt.RemoveReference(nil, a)

	rt.RemoveReference(nil, bridge)

	return rt.AssertDrained(checkpoint)
}

func scenarioS2(rt *runtime.Runtime) error {
	checkpoint := rt.Checkpoint()

	x := rt.CreateRegion()
	y := rt.CreateRegion()
	rt.Set(x, "child", y)

	rt.RemoveReference(nil, y)
	rt.RemoveReference(nil, x)

	return rt.AssertDrained(checkpoint)
}

func scenarioS3(rt *runtime.Runtime) error {
	checkpoint := rt.Checkpoint()

	bridge := rt.CreateRegion()
	a := rt.MakeObject(nil)
	b := rt.MakeObject(nil)

	rt.Set(bridge, "a", a)
	rt.RemoveReference(nil, a)
	rt.Set(a, "b", b)
	rt.RemoveReference(nil, b)
	rt.Set(b, "a", a)

	rt.RemoveReference(nil, bridge)

	return rt.AssertDrained(checkpoint)
}

func scenarioS4(rt *runtime.Runtime) error {
	a := rt.MakeObject(nil)
	b := rt.MakeObject(nil)
	rt.Set(a, "b", b)
	rt.RemoveReference(nil, b)

	rt.Freeze(a)

	if !a.IsImmutable() || !b.IsImmutable() {
		return fmt.Errorf("s4: expected both objects to be immutable after freeze")
	}
	return nil
}

func scenarioS5(rt *runtime.Runtime) (err error) {
	defer func() {
		if recover() == nil {
			err = fmt.Errorf("s5: expected a fatal error on the conflicting parent assignment")
		} else {
			err = nil
		}
	}()

	r1 := rt.CreateRegion()
	r2 := rt.CreateRegion()
	r3 := rt.CreateRegion()

	rt.Set(r1, "x", r3)
	rt.Set(r2, "x", r3)
	return nil
}

// scenarioS6 absorbs a plain object into region a as an ordinary member,
// then moves it directly into region b - the literal move-vs-copy scenario,
// not a bridge reparent.
func scenarioS6(rt *runtime.Runtime) error {
	a := rt.CreateRegion()
	b := rt.CreateRegion()
	x := rt.MakeObject(nil)

	rt.Set(a, "x", x)
	rt.RemoveReference(nil, x)

	rcBefore := x.RC()
	rt.MoveReference(a, b, x)
	if x.RC() != rcBefore {
		return fmt.Errorf("s6: move changed x's reference count")
	}
	return nil
}

// renderScenario runs name against a fresh runtime and writes a mermaid
// diagram of every object the heap still tracks to w, alongside the
// pass/fail outcome. Render is given no roots, so every node comes from its
// sweep over AllObjects and is styled unreachable.
func renderScenario(w io.Writer, log *logrus.Logger, name string) error {
	s, ok := findScenario(name)
	if !ok {
		return fmt.Errorf("unknown scenario %q", name)
	}

	rt := runtime.New(log)
	runErr := s.run(rt)

	if err := rt.Render(w, nil); err != nil {
		return err
	}
	return runErr
}
