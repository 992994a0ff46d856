package memory

// AllocString allocates a string-payload object. The payload is immutable
// Go data regardless of the object's own Tag, matching the reference
// implementation's StringObject, which never participates in field
// mutation at all.
func (h *Heap) AllocString(prototype *Object, s string) *Object {
	o := h.Alloc(KindString, prototype)
	o.strValue = s
	return o
}

// AllocIterator allocates a key iterator snapshotting keys at construction
// time, mirroring KeyIterObject's std::map iterator pair - a live iterator
// over a mutating field map would be unsafe, so the reference
// implementation (and this one) walks a fixed snapshot instead.
func (h *Heap) AllocIterator(prototype *Object, keys []string) *Object {
	o := h.Alloc(KindIterator, prototype)
	o.iterKeys = append([]string(nil), keys...)
	return o
}

// IterNext advances it and returns a fresh string object for the next key,
// or nil once the snapshot is exhausted. The caller owns the returned
// object's implicit construction reference like any other Alloc result.
func (h *Heap) IterNext(it *Object) *Object {
	if it.iterPos >= len(it.iterKeys) {
		return nil
	}
	key := it.iterKeys[it.iterPos]
	it.iterPos++
	return h.AllocString(it.prototype, key)
}

// AllocBytecodeFunc allocates a function object wrapping an opaque
// compiled-bytecode handle. The bytecode compiler itself is out of scope;
// only the fact a function object can carry a handle is modeled (per
// BytecodeHandle's doc comment).
func (h *Heap) AllocBytecodeFunc(prototype *Object, bc BytecodeHandle) *Object {
	o := h.Alloc(KindBytecodeFunc, prototype)
	o.bytecode = bc
	return o
}

// AllocBuiltinFunc allocates a function object wrapping a native Go
// closure, the core's equivalent of BuiltinFuncObject's BuiltinFuncPtr.
func (h *Heap) AllocBuiltinFunc(prototype *Object, fn BuiltinFunc) *Object {
	o := h.Alloc(KindBuiltinFunc, prototype)
	o.builtin = fn
	return o
}

// Builtin returns the native closure a builtin-function object wraps, or
// nil if o is not one.
func (o *Object) Builtin() BuiltinFunc {
	if o.Kind != KindBuiltinFunc {
		return nil
	}
	return o.builtin
}

// Bytecode returns the opaque handle a bytecode-function object wraps, or
// nil if o is not one.
func (o *Object) Bytecode() BytecodeHandle {
	if o.Kind != KindBytecodeFunc {
		return nil
	}
	return o.bytecode
}

// AllocCown wraps region's bridge object as a cown, tagging the new object
// TagCown and storing the bridge directly in fields["value"] - bypassing
// Set/AddReference entirely, exactly as the reference implementation's
// CownObject constructor does (`this->fields["value"] = region;`, with no
// accompanying inc_rc). Cown acquisition and concurrency-safe access are
// out of scope here (spec.md Non-goals); this only models that a cown can
// be constructed around a region and reports itself as one.
func (h *Heap) AllocCown(prototype *Object, bridge *Object) *Object {
	o := newObject(KindCown, prototype)
	o.region = NewTaggedSentinel[Region](TagCown)
	o.fields["value"] = bridge
	o.fieldOrder = append(o.fieldOrder, "value")
	h.track(o)
	if prototype != nil {
		prototype.changeRC(1)
	}
	return o
}
