package features

import (
	"sync"

	"github.com/sibyllinesoft/valknut/internal/types"
)

// Accumulator is the thread-safe sink every extractor writes into. Every
// write and read takes the single mutex below; writes are not sharded per
// goroutine and there is no separate merge step.
type Accumulator struct {
	mu       sync.Mutex
	vectors  map[types.EntityID]*types.FeatureVector
	issues   map[types.EntityID][]types.Issue
	suggests map[types.EntityID][]types.Suggestion
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		vectors:  make(map[types.EntityID]*types.FeatureVector),
		issues:   make(map[types.EntityID][]types.Issue),
		suggests: make(map[types.EntityID][]types.Suggestion),
	}
}

// Set records one feature value for entity, written by extractor.
// Concurrent-safe; panics (via FeatureVector.Set) on a duplicate write to
// the same (entity, feature) key from a different extractor, per §4.3's
// fail-fast contract — that is a programming error, not recoverable state.
func (a *Accumulator) Set(id types.EntityID, name string, value float64, extractor string, version int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	vec, ok := a.vectors[id]
	if !ok {
		vec = types.NewFeatureVector(id)
		a.vectors[id] = vec
	}
	vec.Set(name, value, extractor, version)
}

func (a *Accumulator) AddIssue(id types.EntityID, issue types.Issue) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.issues[id] = append(a.issues[id], issue)
}

func (a *Accumulator) AddSuggestion(id types.EntityID, s types.Suggestion) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.suggests[id] = append(a.suggests[id], s)
}

// Vector returns the (possibly nil) feature vector accumulated for id.
func (a *Accumulator) Vector(id types.EntityID) *types.FeatureVector {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.vectors[id]
}

// Vectors returns every accumulated vector, keyed by entity.
func (a *Accumulator) Vectors() map[types.EntityID]*types.FeatureVector {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[types.EntityID]*types.FeatureVector, len(a.vectors))
	for k, v := range a.vectors {
		out[k] = v
	}
	return out
}

func (a *Accumulator) Issues(id types.EntityID) []types.Issue {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.issues[id]
}

func (a *Accumulator) Suggestions(id types.EntityID) []types.Suggestion {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.suggests[id]
}
