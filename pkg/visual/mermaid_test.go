package visual

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"regioncore/pkg/memory"
)

func newTestHeap() *memory.Heap {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return memory.NewHeap(log)
}

func TestRenderEmitsFencedMermaidBlock(t *testing.T) {
	h := newTestHeap()
	a := h.Alloc(memory.KindPlain, nil)
	b := h.Alloc(memory.KindPlain, nil)
	h.Set(a, "b", b)

	var buf strings.Builder
	if err := Render(&buf, h, []Root{{Key: "a", Target: a}}); err != nil {
		t.Fatalf("Render returned an error: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "```mermaid\n") {
		t.Fatalf("expected a fenced mermaid block, got:\n%s", out)
	}
	if !strings.HasSuffix(out, "```\n") {
		t.Fatalf("expected the block to be closed, got:\n%s", out)
	}
	if !strings.Contains(out, "-->|b|") {
		t.Fatalf("expected the a->b edge labelled \"b\", got:\n%s", out)
	}
	if !strings.Contains(out, "subgraph Count") {
		t.Fatalf("expected an object-count subgraph, got:\n%s", out)
	}
}

func TestRenderFlagsUnreachableObjects(t *testing.T) {
	h := newTestHeap()
	orphan := h.Alloc(memory.KindPlain, nil)

	var buf strings.Builder
	if err := Render(&buf, h, nil); err != nil {
		t.Fatalf("Render returned an error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, orphan.Name()) {
		t.Fatalf("expected the orphan object to still be listed, got:\n%s", out)
	}
	if !strings.Contains(out, ":::unreachable") {
		t.Fatalf("expected the orphan to be flagged unreachable, got:\n%s", out)
	}
}

func TestRenderStylesImmutableAndCownNodes(t *testing.T) {
	h := newTestHeap()
	a := h.Alloc(memory.KindPlain, nil)
	h.Freeze(a)
	bridge := h.CreateRegion()
	cown := h.AllocCown(nil, bridge)

	var buf strings.Builder
	if err := Render(&buf, h, []Root{
		{Key: "a", Target: a},
		{Key: "cown", Target: cown},
	}); err != nil {
		t.Fatalf("Render returned an error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, ":::immutable") {
		t.Fatalf("expected the frozen object to carry the immutable style class, got:\n%s", out)
	}
	if !strings.Contains(out, ":::cown") {
		t.Fatalf("expected the cown wrapper to carry the cown style class, got:\n%s", out)
	}
	if !strings.Contains(out, "classDef immutable") {
		t.Fatalf("expected an immutable classDef line, got:\n%s", out)
	}
	if !strings.Contains(out, "classDef cown") {
		t.Fatalf("expected a cown classDef line, got:\n%s", out)
	}
}
