package runtime

import (
	"math/rand"

	"regioncore/pkg/memory"
)

// FuzzResult summarizes one random-walk run.
type FuzzResult struct {
	Operations int
	Rejections int
}

// RandomWalk drives rounds of randomly chosen reference-protocol operations
// against rt, exercising combinations of MakeObject/CreateRegion/Set/
// AddReference/RemoveReference/Freeze/MoveReference a hand-written
// scenario would never think to try. roots tracks every object the walk
// itself currently holds a direct local reference to; an operation is only
// ever picked from what roots already contains, so the walk can never
// reference something it has already released.
//
// Every *memory.FatalError panic is the core correctly rejecting an
// operation the walk was not entitled to make (mutating an immutable
// object, forming a second region parent, referencing into a region
// except through its bridge) - that is the protocol working, not a bug,
// so it is recovered and counted as a rejection rather than propagated.
// Any other panic (a nil dereference, an index error) is a real defect and
// is allowed to propagate.
func RandomWalk(rt *Runtime, rnd *rand.Rand, rounds int) FuzzResult {
	var roots []*memory.Object
	result := FuzzResult{}

	fieldName := func(i int) string {
		names := []string{"a", "b", "c", "d"}
		return names[i%len(names)]
	}

	attempt := func(op func()) {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(*memory.FatalError); ok {
					result.Rejections++
					return
				}
				panic(r)
			}
		}()
		op()
		result.Operations++
	}

	for round := 0; round < rounds; round++ {
		switch rnd.Intn(7) {
		case 0:
			attempt(func() {
				roots = append(roots, rt.MakeObject(nil))
			})
		case 1:
			attempt(func() {
				roots = append(roots, rt.CreateRegion())
			})
		case 2:
			if len(roots) < 2 {
				continue
			}
			src := roots[rnd.Intn(len(roots))]
			target := roots[rnd.Intn(len(roots))]
			attempt(func() {
				rt.Set(src, fieldName(rnd.Intn(4)), target)
			})
		case 3:
			if len(roots) == 0 {
				continue
			}
			i := rnd.Intn(len(roots))
			victim := roots[i]
			attempt(func() {
				rt.RemoveReference(nil, victim)
			})
			roots = append(roots[:i], roots[i+1:]...)
		case 4:
			if len(roots) == 0 {
				continue
			}
			attempt(func() {
				rt.Freeze(roots[rnd.Intn(len(roots))])
			})
		case 5:
			if len(roots) < 3 {
				continue
			}
			src := roots[rnd.Intn(len(roots))]
			dst := roots[rnd.Intn(len(roots))]
			target := roots[rnd.Intn(len(roots))]
			attempt(func() {
				rt.MoveReference(src, dst, target)
			})
		default:
			if len(roots) == 0 {
				continue
			}
			attempt(func() {
				roots = append(roots, rt.MakeStr("fuzz"))
			})
		}
	}

	for _, r := range roots {
		attempt(func() {
			rt.RemoveReference(nil, r)
		})
	}

	return result
}
