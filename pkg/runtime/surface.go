package runtime

import (
	"io"

	"regioncore/pkg/memory"
	"regioncore/pkg/visual"
)

// MakeObject allocates a plain object under the given prototype (nil for
// none), the general-purpose constructor everything else specializes.
func (rt *Runtime) MakeObject(prototype *memory.Object) *memory.Object {
	return rt.Heap.Alloc(memory.KindPlain, prototype)
}

// MakeStr allocates a string object under the well-known string prototype.
func (rt *Runtime) MakeStr(s string) *memory.Object {
	return rt.Heap.AllocString(rt.StringPrototype, s)
}

// MakeIter allocates an iterator snapshotting src's current field order,
// under the well-known key-iterator prototype.
func (rt *Runtime) MakeIter(src *memory.Object) *memory.Object {
	return rt.Heap.AllocIterator(rt.KeyIterPrototype, src.FieldOrder())
}

// MakeFunc allocates a bytecode-backed function object under the
// well-known bytecode-function prototype.
func (rt *Runtime) MakeFunc(bytecode memory.BytecodeHandle) *memory.Object {
	return rt.Heap.AllocBytecodeFunc(rt.BytecodeFuncPrototype, bytecode)
}

// MakeBuiltin allocates a native-closure function object under the
// well-known builtin-function prototype.
func (rt *Runtime) MakeBuiltin(fn memory.BuiltinFunc) *memory.Object {
	return rt.Heap.AllocBuiltinFunc(rt.BuiltinFuncPrototype, fn)
}

// MakeCown wraps bridge - a region's bridge object, as returned by
// CreateRegion - as a cown under the well-known cown prototype.
func (rt *Runtime) MakeCown(bridge *memory.Object) *memory.Object {
	return rt.Heap.AllocCown(rt.CownPrototype, bridge)
}

// Get reads a field, falling back through the prototype chain.
func (rt *Runtime) Get(obj *memory.Object, key string) *memory.Object {
	return rt.Heap.Get(obj, key)
}

// Set writes a field, returning its previous value.
func (rt *Runtime) Set(obj *memory.Object, key string, v *memory.Object) *memory.Object {
	return rt.Heap.Set(obj, key, v)
}

// SetPrototype rewrites an object's prototype link, returning the previous
// one.
func (rt *Runtime) SetPrototype(obj *memory.Object, p *memory.Object) *memory.Object {
	return rt.Heap.SetPrototype(obj, p)
}

// AddReference records a new reference from src (nil for a root binding)
// to target.
func (rt *Runtime) AddReference(src, target *memory.Object) {
	rt.Heap.AddReference(src, target)
}

// RemoveReference tears down the reference from src to target, cascading
// through whatever it frees.
func (rt *Runtime) RemoveReference(src, target *memory.Object) {
	rt.Heap.RemoveReference(src, target)
}

// MoveReference repoints a reference from src to dst without changing
// target's reference count.
func (rt *Runtime) MoveReference(src, dst, target *memory.Object) {
	rt.Heap.MoveReference(src, dst, target)
}

// CreateRegion allocates a fresh region and returns its bridge object.
func (rt *Runtime) CreateRegion() *memory.Object {
	return rt.Heap.CreateRegion()
}

// Freeze relabels everything reachable from obj as immutable.
func (rt *Runtime) Freeze(obj *memory.Object) {
	rt.Heap.Freeze(obj)
}

// IterNext advances an iterator, returning the next key as a fresh string
// object or nil once exhausted.
func (rt *Runtime) IterNext(it *memory.Object) *memory.Object {
	return rt.Heap.IterNext(it)
}

// Checkpoint returns the current live-object count, for a later
// AssertDrained call.
func (rt *Runtime) Checkpoint() int {
	return rt.Heap.Checkpoint()
}

// AssertDrained reports whether the heap has returned to the object count
// recorded by Checkpoint, forcing a collection of the local region when it
// has not.
func (rt *Runtime) AssertDrained(checkpoint int) error {
	return rt.Heap.AssertDrained(checkpoint)
}

// Render writes a Mermaid diagram of everything reachable from roots, plus
// whatever else the heap has ever allocated and not yet collected, to w.
func (rt *Runtime) Render(w io.Writer, roots []visual.Root) error {
	return visual.Render(w, rt.Heap, roots)
}
