package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/outreach-engine/internal/model"
)

func TestDecisionAuthorityTiers(t *testing.T) {
	assert.Equal(t, 95, decisionAuthority("VP of Engineering"))
	assert.Equal(t, 95, decisionAuthority("CTO"))
	assert.Equal(t, 95, decisionAuthority("Group CIO"))
	assert.Equal(t, 85, decisionAuthority("Director of IT"))
	assert.Equal(t, 85, decisionAuthority("Head of Operations"))
	assert.Equal(t, 75, decisionAuthority("Engineering Manager"))
	assert.Equal(t, 75, decisionAuthority("Team Lead"))
	assert.Equal(t, 65, decisionAuthority("Senior Analyst"))
	assert.Equal(t, 55, decisionAuthority("Coordinator"))
}

func TestDecisionAuthorityFirstMatchWins(t *testing.T) {
	// "VP" outranks the later "director" rule even when both appear.
	assert.Equal(t, 95, decisionAuthority("VP and Director of Platform"))
}

func TestBudgetInfluenceOrgSize(t *testing.T) {
	assert.Equal(t, 85, budgetInfluence(75, model.Organization{Size: 1500}))
	assert.Equal(t, 80, budgetInfluence(75, model.Organization{Size: 600}))
	assert.Equal(t, 75, budgetInfluence(75, model.Organization{Size: 200}))
	assert.Equal(t, 100, budgetInfluence(95, model.Organization{Size: 2000}))
}

func TestBuyingIntentKeywords(t *testing.T) {
	p := model.Profile{Summary: "Leading our digital transformation and cloud automation push."}
	// Base 60, three keyword hits, plus the signal bonus.
	assert.Equal(t, 85, buyingIntent(p, model.IntentSignals{Signals: 7}))

	assert.Equal(t, 60, buyingIntent(model.Profile{}, model.IntentSignals{}))
	assert.Equal(t, 70, buyingIntent(model.Profile{}, model.IntentSignals{Signals: 1}))
}

func TestBuyingIntentClamped(t *testing.T) {
	p := model.Profile{Summary: "digital transformation modernization cloud automation efficiency"}
	got := buyingIntent(p, model.IntentSignals{Signals: 9})
	assert.Equal(t, 95, got)
}

func TestEngagementScore(t *testing.T) {
	assert.Equal(t, 70, engagementScore(model.Profile{}))
	assert.Equal(t, 80, engagementScore(model.Profile{Connections: 501}))
	assert.Equal(t, 90, engagementScore(model.Profile{
		Connections:   800,
		FollowerCount: 1200,
		Summary:       strings.Repeat("x", 201),
	}))
}

func TestOverallScoreRoundsHalfUp(t *testing.T) {
	// 95+85+75+55 = 310, mean 77.5.
	assert.Equal(t, 78, overallScore(95, 85, 75, 55))
	assert.Equal(t, 80, overallScore(95, 95, 60, 70))
}

func TestComputeMetricsDeterministic(t *testing.T) {
	p := model.Profile{Title: "VP of IT", Summary: "cloud efficiency work", Connections: 600}
	org := model.Organization{Size: 1200}
	sig := model.IntentSignals{Signals: 8}

	first := ComputeMetrics(p, org, sig)
	second := ComputeMetrics(p, org, sig)
	assert.Equal(t, first, second)

	assert.Equal(t, 95, first.DecisionAuthority)
	assert.Equal(t, 100, first.BudgetInfluence)
	assert.Equal(t, 80, first.BuyingIntent)
	assert.Equal(t, 80, first.EngagementScore)
	assert.Equal(t, overallScore(95, 100, 80, 80), first.OverallScore)
}
