package testutil

import (
	"fmt"
	"sync"
)

// ScenarioIDGenerator hands out transaction ids derived from a scenario
// name: "<name>-0001", "<name>-0002" and so on. The zero padding keeps the
// lexical order of ids equal to their creation order.
//
// The same scenario with a fresh ScenarioIDGenerator produces byte-identical
// trace logs.
//
// Thread-safety: Generate is safe for concurrent use.
type ScenarioIDGenerator struct {
	mu   sync.Mutex
	name string
	n    int
}

// NewScenarioIDGenerator creates a generator for the named scenario.
// An empty name uses "scenario".
func NewScenarioIDGenerator(name string) *ScenarioIDGenerator {
	if name == "" {
		name = "scenario"
	}
	return &ScenarioIDGenerator{name: name}
}

// Generate returns the next id.
//
// Implements engine.IDGenerator.
func (g *ScenarioIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.name, g.n)
}
