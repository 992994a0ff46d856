package memory

import "testing"

func TestSetReplacesFieldAndRebalancesRC(t *testing.T) {
	h := newTestHeap()
	obj := h.Alloc(KindPlain, nil)
	first := h.Alloc(KindPlain, nil)
	second := h.Alloc(KindPlain, nil)

	h.Set(obj, "field", first)
	if first.RC() != 2 {
		t.Fatalf("first rc = %d, want 2 (construction temp + obj.field)", first.RC())
	}

	h.Set(obj, "field", second)
	// Releasing the construction temps leaves each holder count clean.
	h.RemoveReference(nil, first)
	h.RemoveReference(nil, second)

	if first.RC() != 0 {
		t.Fatalf("first rc = %d, want 0 after being overwritten and its temp released", first.RC())
	}
	if second.RC() != 1 {
		t.Fatalf("second rc = %d, want 1 (held only by obj.field)", second.RC())
	}
	if obj.rawGet("field") != second {
		t.Fatalf("obj.field should now read second")
	}
}

func TestSetOnImmutableObjectAborts(t *testing.T) {
	h := newTestHeap()
	obj := h.Alloc(KindPlain, nil)
	obj.region.SetTag(TagImmutable)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Set on an immutable object to abort")
		}
	}()
	h.Set(obj, "field", h.Alloc(KindPlain, nil))
}

func TestSetPrototypeReplacesAndRebalances(t *testing.T) {
	h := newTestHeap()
	obj := h.Alloc(KindPlain, nil)
	p1 := h.Alloc(KindPlain, nil)
	p2 := h.Alloc(KindPlain, nil)

	h.SetPrototype(obj, p1)
	h.SetPrototype(obj, p2)
	h.RemoveReference(nil, p1)
	h.RemoveReference(nil, p2)

	if p1.RC() != 0 {
		t.Fatalf("p1 rc = %d, want 0 after being replaced", p1.RC())
	}
	if obj.Prototype() != p2 {
		t.Fatalf("obj prototype should now be p2")
	}
}
