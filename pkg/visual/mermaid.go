// Package visual renders a snapshot of the region heap as a Mermaid graph,
// for inspecting what a scenario actually built rather than taking its
// word for it. It depends only on the exported surface of pkg/memory.
package visual

import (
	"fmt"
	"io"
	"sort"

	"regioncore/pkg/memory"
)

// Root is one starting edge for the walk - usually a variable binding
// (Src nil, a synthetic Key) or a field a caller wants called out by name.
type Root struct {
	Src    *memory.Object
	Key    string
	Target *memory.Object
}

// renderer accumulates the visited-object table and region membership
// while walking, then emits everything in one pass once the walk is done.
// Grounded on original_source/src/rt/ui/mermaid.cc's free function of the
// same shape (a std::map<DynObject*, size_t> id table plus a
// std::map<Region*, vector<size_t>> membership table, built up by one
// explore closure and drained afterwards); the emit-helper-over-io.Writer
// texture mirrors the teacher's deleted pkg/memory/scc.go generator.
type renderer struct {
	h       *memory.Heap
	w       io.Writer
	visited map[*memory.Object]int
	nextID  int

	regionObjects map[*memory.Region][]int
	regionOrder   []*memory.Region
	immutable     []int
	cown          []int
}

func (r *renderer) emit(format string, args ...interface{}) {
	fmt.Fprintf(r.w, format, args...)
}

// Render walks every edge reachable from roots, then every still-unvisited
// object the heap still tracks (so leaked or cyclic garbage shows up
// too, flagged unreachable), and writes the result as a single fenced
// Mermaid diagram.
func Render(w io.Writer, h *memory.Heap, roots []Root) error {
	r := &renderer{
		h:             h,
		w:             w,
		visited:       map[*memory.Object]int{nil: 0},
		nextID:        1,
		regionObjects: make(map[*memory.Region][]int),
		immutable:     []int{0},
	}

	r.emit("```mermaid\n")
	r.emit("graph TD\n")

	for _, root := range roots {
		r.walk(root.Src, root.Key, root.Target, false)
	}
	for o := range h.AllObjects {
		if _, seen := r.visited[o]; !seen {
			r.walk(nil, "", o, true)
		}
	}

	for _, region := range r.regionOrder {
		if region.Parent == nil {
			continue
		}
		r.emit("  region%s  <-.-o region%s\n", region.Parent.ID, region.ID)
	}

	for _, region := range r.regionOrder {
		if region == h.Local {
			r.emit("subgraph local region\n")
		} else {
			r.emit("subgraph  \n")
			r.emit("  region%s[\\%s<br/>lrc=%d<br/>sbrc=%d<br/>prc=%d/]\n",
				region.ID, region.ID, region.LRC, region.SBRC, region.PRC)
		}
		for _, id := range r.regionObjects[region] {
			r.emit("  id%d\n", id)
		}
		r.emit("end\n")
	}

	r.emit("subgraph Immutable\n")
	r.emit("  id0[nullptr]\n")
	for _, id := range r.immutable {
		if id == 0 {
			continue
		}
		r.emit("  id%d\n", id)
	}
	r.emit("end\n")

	if len(r.cown) > 0 {
		r.emit("subgraph Cowns\n")
		for _, id := range r.cown {
			r.emit("  id%d\n", id)
		}
		r.emit("end\n")
	}

	r.emit("subgraph Count %d\n", len(h.AllObjects))
	for _, region := range sortedRegions(h) {
		r.emit("  %%%% region %s\n", region.ID)
	}
	r.emit("end\n")
	r.emit("classDef unreachable stroke:red,stroke-width:2px\n")
	r.emit("classDef immutable fill:#eee,stroke:#333\n")
	r.emit("classDef cown fill:#def,stroke:#06c\n")
	r.emit("```\n")

	return nil
}

// walk visits dst, labelling the edge from src via key if src is not nil.
// A dst already present in the id table is only ever referenced, never
// redescended into - this dedup, absent from the RC-driving traversal in
// pkg/memory, is what keeps a rendered cycle from looping forever.
func (r *renderer) walk(src *memory.Object, key string, dst *memory.Object, unreachable bool) {
	if src != nil {
		r.emit("  id%d -->|%s| ", r.visited[src], key)
	}
	if id, seen := r.visited[dst]; seen {
		r.emit("id%d\n", id)
		return
	}

	id := r.nextID
	r.nextID++
	r.visited[dst] = id

	r.emit("id%d[ %s<br/>rc=%d ]%s\n", id, dst.Name(), dst.RC(), styleSuffix(dst, unreachable))

	if region := memory.RegionOf(dst); region != nil {
		if _, ok := r.regionObjects[region]; !ok {
			r.regionOrder = append(r.regionOrder, region)
		}
		r.regionObjects[region] = append(r.regionObjects[region], id)
	}
	if dst.IsImmutable() {
		r.immutable = append(r.immutable, id)
	}
	if dst.IsCown() {
		r.cown = append(r.cown, id)
	}

	if p := dst.Prototype(); p != nil {
		r.walk(dst, memory.ProtoField, p, unreachable)
	}
	for _, field := range dst.FieldOrder() {
		r.walk(dst, field, r.h.Get(dst, field), unreachable)
	}
}

// styleSuffix picks the one Mermaid class a node can carry: unreachable
// (found only by the diagnostic sweep over AllObjects) takes precedence
// since it is the more surprising fact about the node, then cown, then
// plain immutable.
func styleSuffix(dst *memory.Object, unreachable bool) string {
	switch {
	case unreachable:
		return ":::unreachable"
	case dst.IsCown():
		return ":::cown"
	case dst.IsImmutable():
		return ":::immutable"
	default:
		return ""
	}
}

// sortedRegions gives Render's Count subgraph a deterministic listing of
// every region the heap still tracks (collected regions are dropped from
// AllRegions), independent of the insertion-
// order region table the rest of the diagram uses.
func sortedRegions(h *memory.Heap) []*memory.Region {
	out := make([]*memory.Region, 0, len(h.AllRegions))
	for r := range h.AllRegions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}
