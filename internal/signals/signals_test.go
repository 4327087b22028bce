package signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveExecutiveTitle(t *testing.T) {
	e := NewEngine()

	s := e.Derive("Chief Information Officer")
	assert.Equal(t, 9, s.Signals)
	assert.Equal(t, "solution_seeking", s.Sentiment)
	assert.Contains(t, s.Keywords, "digital transformation")
}

func TestDeriveVPTitle(t *testing.T) {
	s := NewEngine().Derive("VP of IT Operations")
	assert.Equal(t, 8, s.Signals)
	assert.Equal(t, "frustrated", s.Sentiment)
}

func TestDeriveManagerTitle(t *testing.T) {
	s := NewEngine().Derive("IT Support Manager")
	assert.Equal(t, 6, s.Signals)
	assert.Equal(t, "problem_aware", s.Sentiment)
}

func TestDeriveUnknownTitleDefaults(t *testing.T) {
	s := NewEngine().Derive("Coordinator")
	assert.Equal(t, 4, s.Signals)
	assert.Equal(t, "neutral", s.Sentiment)
	assert.NotEmpty(t, s.PainPoints)
}

func TestDeriveIsPure(t *testing.T) {
	e := NewEngine()
	a := e.Derive("Director of Engineering")
	b := e.Derive("director of engineering")
	assert.Equal(t, a.Signals, b.Signals)
	assert.Equal(t, a.Keywords, b.Keywords)
}

func TestCacheExpiry(t *testing.T) {
	e := NewEngine()
	now := time.Now()
	e.now = func() time.Time { return now }

	first := e.Derive("Senior Analyst")
	assert.Equal(t, 5, first.Signals)

	// Advance past the TTL; the entry is recomputed, not served stale.
	now = now.Add(31 * time.Minute)
	again := e.Derive("Senior Analyst")
	assert.Equal(t, first, again)
}

func TestClearCache(t *testing.T) {
	e := NewEngine()
	e.Derive("CTO")
	e.ClearCache()
	assert.Empty(t, e.cache)
}
