// Package runtime is the public surface the region core exposes to
// whatever builds a mutator on top of it - a scripted scenario driver, a
// fuzz harness, eventually an interpreter. It owns a memory.Heap plus the
// handful of well-known prototype objects every payload Kind is shaped
// around, mirroring the static singleton prototypes in the reference
// implementation's core.h (frame, function, string, iterator, cown).
package runtime

import (
	"github.com/sirupsen/logrus"

	"regioncore/pkg/memory"
)

// Runtime bundles a region heap with the well-known prototypes and a
// logger. It is not safe for concurrent use by more than one goroutine,
// matching the single-mutator assumption the region core itself makes.
type Runtime struct {
	Heap *memory.Heap
	Log  *logrus.Logger

	FramePrototype         *memory.Object
	FuncPrototype          *memory.Object
	BytecodeFuncPrototype  *memory.Object
	BuiltinFuncPrototype   *memory.Object
	StringPrototype        *memory.Object
	KeyIterPrototype       *memory.Object
	CownPrototype          *memory.Object

	True  *memory.Object
	False *memory.Object
}

// New builds a Runtime with a fresh heap and the well-known prototypes
// seeded the way core.h's lazily-initialized statics are, except built
// eagerly since there is exactly one Runtime per process run here.
func New(log *logrus.Logger) *Runtime {
	if log == nil {
		log = logrus.New()
	}
	h := memory.NewHeap(log)

	rt := &Runtime{Heap: h, Log: log}

	rt.FramePrototype = h.Alloc(memory.KindPlain, nil)
	rt.FuncPrototype = h.Alloc(memory.KindPlain, nil)
	rt.BytecodeFuncPrototype = h.Alloc(memory.KindPlain, rt.FuncPrototype)
	rt.BuiltinFuncPrototype = h.Alloc(memory.KindPlain, rt.FuncPrototype)
	rt.StringPrototype = h.Alloc(memory.KindPlain, nil)
	rt.KeyIterPrototype = h.Alloc(memory.KindPlain, nil)
	rt.CownPrototype = h.Alloc(memory.KindPlain, nil)

	rt.True = rt.MakeStr("True")
	rt.False = rt.MakeStr("False")

	return rt
}
