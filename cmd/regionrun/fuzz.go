package main

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"regioncore/pkg/runtime"
)

// fuzzSummary is what newFuzzCmd reports after driving rounds of random
// operations against a throwaway runtime.
type fuzzSummary struct {
	rounds     int
	operations int
}

// runFuzz drives one RandomWalk over a fresh runtime and asserts the heap
// drained cleanly once every root the walk built was released - the same
// check pkg/runtime's property test makes, exposed here as a manually
// triggerable command for exploring seeds the test suite doesn't cover.
func runFuzz(log *logrus.Logger, seed int64, rounds int) fuzzSummary {
	rt := runtime.New(log)
	checkpoint := rt.Checkpoint()
	rnd := rand.New(rand.NewSource(seed))

	result := runtime.RandomWalk(rt, rnd, rounds)

	if err := rt.AssertDrained(checkpoint); err != nil {
		log.WithError(err).Error("heap failed to drain after the walk released every root")
	}

	return fuzzSummary{rounds: rounds, operations: result.Operations}
}
