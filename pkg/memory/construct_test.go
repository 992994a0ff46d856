package memory

import "testing"

func TestAllocStringCarriesPayload(t *testing.T) {
	h := newTestHeap()
	s := h.AllocString(nil, "hello")
	if s.StrValue() != "hello" {
		t.Fatalf("StrValue() = %q, want %q", s.StrValue(), "hello")
	}
	if s.Kind != KindString {
		t.Fatalf("Kind = %v, want KindString", s.Kind)
	}
}

func TestIterNextWalksSnapshotThenStops(t *testing.T) {
	h := newTestHeap()
	it := h.AllocIterator(nil, []string{"a", "b"})

	first := h.IterNext(it)
	if first == nil || first.StrValue() != "a" {
		t.Fatalf("first = %v, want \"a\"", first)
	}
	second := h.IterNext(it)
	if second == nil || second.StrValue() != "b" {
		t.Fatalf("second = %v, want \"b\"", second)
	}
	if h.IterNext(it) != nil {
		t.Fatalf("expected nil once the snapshot is exhausted")
	}
}

func TestAllocBuiltinFuncRoundTripsClosure(t *testing.T) {
	h := newTestHeap()
	called := false
	fn := h.AllocBuiltinFunc(nil, func(args []*Object) *Object {
		called = true
		return nil
	})
	fn.Builtin()(nil)
	if !called {
		t.Fatalf("wrapped closure was not reachable through Builtin()")
	}
	if fn.Bytecode() != nil {
		t.Fatalf("a builtin-function object should not report a bytecode handle")
	}
}

func TestAllocCownWrapsBridgeWithoutRegionBookkeeping(t *testing.T) {
	h := newTestHeap()
	bridge := h.CreateRegion()
	r := regionOf(bridge)

	cown := h.AllocCown(nil, bridge)

	if !cown.IsCown() {
		t.Fatalf("expected cown tag")
	}
	if h.Get(cown, "value") != bridge {
		t.Fatalf("cown should expose the wrapped bridge via its value field")
	}
	if r.LRC != 1 {
		t.Fatalf("wrapping a region in a cown must not change its LRC (matches the reference implementation's bypass of the reference protocol)")
	}
}
