package memory

import "github.com/sirupsen/logrus"

// Heap is the mutator's view of the object graph: the local region (the
// implicit root every chain of ownership bottoms out at), every object
// allocated through it and not yet deallocated (for diagnostics and leak
// checks only - membership
// here has no bearing on reachability), and the queue of regions whose
// CombinedLRC has dropped to zero and are waiting to be torn down.
type Heap struct {
	Local *Region

	AllObjects map[*Object]struct{}
	AllRegions map[*Region]struct{}

	toCollect []*Region
	collecting bool

	Logger *logrus.Logger
}

// NewHeap builds a heap with its local region already active. Local has no
// bridge and no parent - it is the one region nothing ever points into from
// above.
func NewHeap(log *logrus.Logger) *Heap {
	if log == nil {
		log = logrus.New()
	}
	local := newRegion()
	h := &Heap{
		Local:      local,
		AllObjects: make(map[*Object]struct{}),
		AllRegions: make(map[*Region]struct{}),
		Logger:     log,
	}
	h.AllRegions[local] = struct{}{}
	return h
}

func (h *Heap) track(o *Object) *Object {
	h.AllObjects[o] = struct{}{}
	return o
}

// regionOf returns the region a mutable object belongs to, or nil for an
// immutable or cown object (neither of which belongs to any region).
func regionOf(o *Object) *Region {
	return o.region.Ptr()
}

// RegionOf exposes regionOf for callers outside the package (diagnostics,
// scenario tests, the visualization renderer) that need to check which
// region an object currently belongs to without touching its bookkeeping.
func RegionOf(o *Object) *Region {
	return regionOf(o)
}

func (h *Heap) abortf(subject string, format string, args ...interface{}) {
	abort(h.Logger, subject, format, args...)
}

// edge is one step of a graph walk: the field (or payload slot) name that
// was followed to reach target from src. src is nil only for the synthetic
// edge a walk starts from when the caller has no real predecessor object.
type edge struct {
	src    *Object
	key    string
	target *Object
}

// visit walks the subgraph reachable from start.target in pre/post order
// using an explicit stack, mirroring the reference implementation's visit
// template: start is offered to pre first (so a caller with a real src, as
// RemoveReference has, gets it on the very first call); pre decides whether
// to descend into target's own fields and prototype, and runs again for
// every field/prototype edge found while descending. post fires once all of
// an object's children have been pushed and popped, in reverse field order
// with the prototype edge (pushed last) visited first. There is no separate
// visited set - a cyclic or diamond-shaped graph is only as safe as pre
// makes it, exactly as in the traversals this models (freeze marks objects
// immutable before descending further, remove_reference only descends once
// an object's reference count has reached zero).
func visit(start edge, pre func(edge) bool, post func(*Object)) {
	if !pre(start) {
		return
	}

	type frame struct {
		obj    *Object
		key    string
		isPost bool
	}

	hasPost := post != nil
	var stack []frame

	push := func(o *Object) {
		if o == nil {
			return
		}
		if hasPost {
			stack = append(stack, frame{obj: o, isPost: true})
		}
		for _, key := range o.FieldOrder() {
			stack = append(stack, frame{obj: o, key: key})
		}
		if o.prototype != nil {
			stack = append(stack, frame{obj: o, key: ProtoField})
		}
	}

	push(start.target)

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.isPost {
			post(top.obj)
			continue
		}

		next := top.obj.rawGet(top.key)
		if pre(edge{src: top.obj, key: top.key, target: next}) {
			push(next)
		}
	}
}

// visitFrom is visit with a synthetic root edge, for walks (freeze,
// add_to_region) whose pre callback never inspects e.src.
func visitFrom(start *Object, pre func(edge) bool, post func(*Object)) {
	visit(edge{target: start}, pre, post)
}
