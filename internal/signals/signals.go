// Package signals derives heuristic buying-intent signals from a job title.
// The mapping is a fixed rule table keyed on seniority keywords; it never
// performs I/O and never fails.
package signals

import (
	"strings"
	"sync"
	"time"

	"github.com/sells-group/outreach-engine/internal/model"
)

const cacheTTL = 30 * time.Minute

// Engine maps job titles to canned intent signals, memoizing results per
// lower-cased title for a short window.
type Engine struct {
	mu    sync.Mutex
	cache map[string]cacheEntry
	now   func() time.Time
}

type cacheEntry struct {
	signals model.IntentSignals
	at      time.Time
}

// NewEngine creates a signal heuristic engine.
func NewEngine() *Engine {
	return &Engine{
		cache: make(map[string]cacheEntry),
		now:   time.Now,
	}
}

// Derive returns the intent signals for a job title. Unknown titles get
// the neutral default analysis rather than an error.
func (e *Engine) Derive(jobTitle string) model.IntentSignals {
	key := strings.ToLower(strings.TrimSpace(jobTitle))

	e.mu.Lock()
	defer e.mu.Unlock()

	if entry, ok := e.cache[key]; ok && e.now().Sub(entry.at) < cacheTTL {
		return entry.signals
	}

	s := deriveSignals(jobTitle)
	e.cache[key] = cacheEntry{signals: s, at: e.now()}
	return s
}

// ClearCache drops all memoized analyses.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]cacheEntry)
}

func deriveSignals(jobTitle string) model.IntentSignals {
	t := strings.ToLower(jobTitle)
	base := model.IntentSignals{JobTitle: jobTitle}

	switch {
	case strings.Contains(t, "cio") || strings.Contains(t, "cto") || strings.Contains(t, "chief"):
		base.Signals = 9
		base.PainPoints = []string{
			"Digital transformation initiatives stalling",
			"Legacy system modernization challenges",
			"ROI pressure on technology investments",
			"Talent acquisition difficulties",
		}
		base.Keywords = []string{"automation", "modernization", "roi", "enterprise", "digital transformation"}
		base.Sentiment = "solution_seeking"
		base.Urgency = "high"
		base.BudgetCycle = "q4_planning"

	case strings.Contains(t, "vp") || strings.Contains(t, "vice president"):
		base.Signals = 8
		base.PainPoints = []string{
			"Team productivity bottlenecks",
			"Cross-department workflow inefficiencies",
			"Reporting and visibility gaps",
			"Vendor management complexity",
		}
		base.Keywords = []string{"productivity", "workflow", "visibility", "operations", "efficiency"}
		base.Sentiment = "frustrated"
		base.Urgency = "medium-high"
		base.BudgetCycle = "annual_review"

	case strings.Contains(t, "director") || strings.Contains(t, "head of"):
		base.Signals = 7
		base.PainPoints = []string{
			"Manual process overhead",
			"Ticket volume management",
			"Team burnout from repetitive tasks",
			"SLA compliance challenges",
		}
		base.Keywords = []string{"automation", "ticketing", "workflow", "sla", "efficiency"}
		base.Sentiment = "solution_seeking"
		base.Urgency = "medium"
		base.BudgetCycle = "quarterly"

	case strings.Contains(t, "manager") || strings.Contains(t, "lead"):
		base.Signals = 6
		base.PainPoints = []string{
			"Daily operational firefighting",
			"Limited visibility into team workload",
			"Manual reporting requirements",
			"User satisfaction concerns",
		}
		base.Keywords = []string{"support", "self-service", "metrics", "workload", "user satisfaction"}
		base.Sentiment = "problem_aware"
		base.Urgency = "medium"
		base.BudgetCycle = "departmental"

	case strings.Contains(t, "senior") || strings.Contains(t, "specialist") || strings.Contains(t, "analyst"):
		base.Signals = 5
		base.PainPoints = []string{
			"Repetitive manual tasks",
			"Knowledge sharing challenges",
			"Tool fragmentation",
			"Career development concerns",
		}
		base.Keywords = []string{"automation", "skills", "tools", "maintenance", "knowledge"}
		base.Sentiment = "learning_oriented"
		base.Urgency = "low-medium"
		base.BudgetCycle = "skill_development"

	default:
		base.Signals = 4
		base.PainPoints = []string{
			"General operational inefficiencies",
			"Process improvement opportunities",
			"Technology adoption challenges",
		}
		base.Keywords = []string{"efficiency", "processes", "technology", "improvement"}
		base.Sentiment = "neutral"
		base.Urgency = "low"
		base.BudgetCycle = "standard"
	}

	return base
}
