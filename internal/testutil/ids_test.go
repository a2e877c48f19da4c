package testutil

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScenarioIDGenerator_Sequence(t *testing.T) {
	gen := NewScenarioIDGenerator("transfer")

	assert.Equal(t, "transfer-0001", gen.Generate())
	assert.Equal(t, "transfer-0002", gen.Generate())
	assert.Equal(t, "transfer-0003", gen.Generate())
}

func TestScenarioIDGenerator_EmptyNameDefault(t *testing.T) {
	gen := NewScenarioIDGenerator("")
	assert.Equal(t, "scenario-0001", gen.Generate())
}

func TestScenarioIDGenerator_LexicalOrderMatchesCreation(t *testing.T) {
	gen := NewScenarioIDGenerator("s")
	ids := make([]string, 120)
	for i := range ids {
		ids[i] = gen.Generate()
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestScenarioIDGenerator_Deterministic(t *testing.T) {
	a := NewScenarioIDGenerator("relay")
	b := NewScenarioIDGenerator("relay")
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Generate(), b.Generate())
	}
}

func TestScenarioIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewScenarioIDGenerator("p")
	const goroutines = 20
	const calls = 50

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				id := gen.Generate()
				mu.Lock()
				assert.False(t, seen[id], "duplicate id %s", id)
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, goroutines*calls)
}
