package memory

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Kind tags which payload variant an Object carries, in place of the
// reference implementation's C++ subclasses (StringObject, KeyIterObject,
// BytecodeFuncObject, ...). Unlike the Tag table in pkg/ast/value.go that
// this is styled after, Kind only distinguishes payload shape - identity
// and equality stay address-based regardless of Kind.
type Kind uint8

const (
	KindPlain Kind = iota
	KindString
	KindIterator
	KindBytecodeFunc
	KindBuiltinFunc
	KindCown
	KindBridge
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindIterator:
		return "iterator"
	case KindBytecodeFunc:
		return "bytecode-function"
	case KindBuiltinFunc:
		return "builtin-function"
	case KindCown:
		return "cown"
	case KindBridge:
		return "region-bridge"
	default:
		return "object"
	}
}

// ProtoField is the synthetic field name used to read/write an object's
// prototype through Get/__proto__ lookups, mirroring the reference
// implementation's PrototypeField.
const ProtoField = "__proto__"

// ParentField is reserved for a frame's lexical parent link. The surface
// interpreter (out of scope here) is expected to use it the way the
// reference implementation's FrameObject does; the core itself never reads
// or writes it specially.
const ParentField = "__parent__"

// BytecodeHandle is an opaque handle to compiled bytecode. The bytecode
// compiler itself is out of scope for the region core - only the fact that
// a function object can carry one is modeled.
type BytecodeHandle interface{}

// BuiltinFunc is a native function a builtin-function object wraps.
type BuiltinFunc func(args []*Object) *Object

// Object is the dynamic, prototype-based value the region core tracks:
// a reference count, a region membership (or immutable/cown tag), an
// optional prototype for fallback lookup, an ordered field map, and one of
// a handful of intrinsic payloads depending on Kind.
type Object struct {
	ID   uuid.UUID
	Kind Kind

	rc     int64
	region TaggedPointer[Region]

	prototype  *Object
	fields     map[string]*Object
	fieldOrder []string

	strValue string
	iterKeys []string
	iterPos  int
	bytecode BytecodeHandle
	builtin  BuiltinFunc
}

func newObject(kind Kind, prototype *Object) *Object {
	return &Object{
		ID:        uuid.New(),
		Kind:      kind,
		rc:        1,
		prototype: prototype,
		fields:    make(map[string]*Object),
	}
}

// RC returns the current reference count.
func (o *Object) RC() int64 {
	if o.IsImmutable() {
		return atomic.LoadInt64(&o.rc)
	}
	return o.rc
}

// IsImmutable reports whether o has been frozen into the shared immutable
// heap.
func (o *Object) IsImmutable() bool { return o.region.Tag() == TagImmutable }

// IsCown reports whether o is a cown wrapper.
func (o *Object) IsCown() bool { return o.region.Tag() == TagCown }

// Prototype returns the object consulted when a field lookup misses.
func (o *Object) Prototype() *Object { return o.prototype }

// FieldOrder returns field names in insertion order, the iteration order
// make_iter walks.
func (o *Object) FieldOrder() []string {
	out := make([]string, len(o.fieldOrder))
	copy(out, o.fieldOrder)
	return out
}

// StrValue returns the payload of a string object.
func (o *Object) StrValue() string { return o.strValue }

// Name renders a short diagnostic label, used by logging and the
// visualization renderer - never by mutator-visible semantics.
func (o *Object) Name() string {
	switch o.Kind {
	case KindString:
		return fmt.Sprintf("%q", o.strValue)
	case KindCown:
		return "<cown>"
	case KindIterator:
		return "<iterator>"
	case KindBridge:
		return fmt.Sprintf("<region %s>", o.ID.String()[:8])
	default:
		return o.ID.String()[:8]
	}
}

// changeRC adjusts the reference count by delta, atomically when the
// object is immutable (the one concession this model makes toward a future
// concurrent reader sharing frozen closures), and reports the new value
// plus whether a mutable object's count would have underflowed (in which
// case rc is left unchanged - the caller, which holds the logger, aborts).
func (o *Object) changeRC(delta int64) (newRC int64, underflow bool) {
	if o.IsImmutable() {
		return atomic.AddInt64(&o.rc, delta), false
	}
	if delta < 0 && o.rc+delta < 0 {
		return o.rc, true
	}
	o.rc += delta
	return o.rc, false
}

// rawGet looks up fields[name], falling back to the prototype chain and
// the synthetic __proto__ field. Pure read, no RC or region effects.
func (o *Object) rawGet(name string) *Object {
	if o == nil {
		return nil
	}
	if v, ok := o.fields[name]; ok {
		return v
	}
	if name == ProtoField {
		return o.prototype
	}
	if o.prototype != nil {
		return o.prototype.rawGet(name)
	}
	return nil
}

// rawSet replaces fields[name], returning the previous value. A nil value
// is still a present field - it maps the key to nil rather than deleting
// it, so a later rawGet sees an explicit null instead of falling through
// to the prototype chain. It performs no immutability check - callers
// that must enforce §4.6's "writing a field on an immutable object is
// fatal" rule do so before calling this (see Heap.Set); rawSet itself is
// also used by region teardown, which only ever runs against mutable
// members.
func (o *Object) rawSet(name string, value *Object) *Object {
	old, existed := o.fields[name]
	if !existed {
		o.fieldOrder = append(o.fieldOrder, name)
	}
	o.fields[name] = value
	return old
}

func (o *Object) rawSetPrototype(value *Object) *Object {
	old := o.prototype
	o.prototype = value
	return old
}
