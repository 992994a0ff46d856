package memory

// Get reads obj.fields[key], falling back through the prototype chain.
// Exported alongside Set/SetPrototype as the read half of the same public
// field-access surface; it has no RC or region effects; a caller that
// wants to hold onto the result across further mutation must AddReference
// it explicitly.
func (h *Heap) Get(obj *Object, key string) *Object {
	return obj.rawGet(key)
}

// Set writes fields[key] on obj, establishing a reference for the new value
// (if any) and then retiring the previous value's reference (if any), in
// that order so an overwrite with the same value never observes a transient
// zero. Mutating an
// immutable object is a core invariant violation (§4.6), not a recoverable
// error - the excluded interpreter layer is where "you can't do that" would
// become something a script can catch.
func (h *Heap) Set(obj *Object, key string, value *Object) *Object {
	if obj.IsImmutable() {
		h.abortf(obj.Name(), "cannot write field %q on an immutable object", key)
	}
	if value != nil {
		h.AddReference(obj, value)
	}
	old := obj.rawSet(key, value)
	if old != nil {
		h.RemoveReference(obj, old)
	}
	return old
}

// SetPrototype is Set's counterpart for the prototype link.
func (h *Heap) SetPrototype(obj *Object, p *Object) *Object {
	if obj.IsImmutable() {
		h.abortf(obj.Name(), "cannot set prototype on an immutable object")
	}
	if p != nil {
		h.AddReference(obj, p)
	}
	old := obj.rawSetPrototype(p)
	if old != nil {
		h.RemoveReference(obj, old)
	}
	return old
}
