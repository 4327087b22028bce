package pipeline

import (
	"math"
	"strings"

	"github.com/sells-group/outreach-engine/internal/model"
)

// buyingIntentKeywords is the fixed set scanned against the profile
// summary. Each hit adds five points.
var buyingIntentKeywords = []string{
	"digital transformation",
	"modernization",
	"cloud",
	"automation",
	"efficiency",
}

// ComputeMetrics derives the four prospect sub-scores and their rounded
// mean. Pure function of its inputs.
func ComputeMetrics(p model.Profile, org model.Organization, sig model.IntentSignals) model.Metrics {
	da := decisionAuthority(p.Title)
	bi := budgetInfluence(da, org)
	intent := buyingIntent(p, sig)
	engagement := engagementScore(p)

	return model.Metrics{
		DecisionAuthority: da,
		BudgetInfluence:   bi,
		BuyingIntent:      intent,
		EngagementScore:   engagement,
		OverallScore:      overallScore(da, bi, intent, engagement),
	}
}

// decisionAuthority ranks the title by an ordered rule list; the first
// matching tier wins.
func decisionAuthority(title string) int {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "cio") || strings.Contains(t, "cto") || strings.Contains(t, "vp"):
		return 95
	case strings.Contains(t, "director") || strings.Contains(t, "head"):
		return 85
	case strings.Contains(t, "manager") || strings.Contains(t, "lead"):
		return 75
	case strings.Contains(t, "senior"):
		return 65
	default:
		return 55
	}
}

func budgetInfluence(authority int, org model.Organization) int {
	score := authority
	switch {
	case org.Size > 1000:
		score += 10
	case org.Size > 500:
		score += 5
	}
	return clamp(score)
}

func buyingIntent(p model.Profile, sig model.IntentSignals) int {
	score := 60
	summary := strings.ToLower(p.Summary)
	for _, kw := range buyingIntentKeywords {
		if strings.Contains(summary, kw) {
			score += 5
		}
	}
	if sig.Signals > 0 {
		score += 10
	}
	return clamp(score)
}

func engagementScore(p model.Profile) int {
	score := 70
	if p.Connections > 500 {
		score += 10
	}
	if p.FollowerCount > 1000 {
		score += 5
	}
	if len(p.Summary) > 200 {
		score += 5
	}
	return clamp(score)
}

func overallScore(a, b, c, d int) int {
	return int(math.Round(float64(a+b+c+d) / 4))
}

func clamp(v int) int {
	if v > 100 {
		return 100
	}
	return v
}
