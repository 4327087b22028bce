package generate

import (
	"fmt"
	"strings"

	"github.com/sells-group/outreach-engine/internal/model"
)

// buildSummaryPrompt assembles the strategic-brief prompt from the
// prospect record and optional knowledge snippets.
func buildSummaryPrompt(p model.Profile, org model.Organization, sig model.IntentSignals, snippets []string) string {
	var sb strings.Builder

	sb.WriteString("Write a concise strategic brief for a sales team preparing outreach to this prospect.\n\n")

	fmt.Fprintf(&sb, "Prospect: %s, %s at %s (%s)\n", p.Name, p.Title, p.Company, p.Location)
	if p.Summary != "" {
		fmt.Fprintf(&sb, "About: %s\n", p.Summary)
	}
	if len(p.Expertise) > 0 {
		fmt.Fprintf(&sb, "Expertise: %s\n", strings.Join(p.Expertise, ", "))
	}
	for _, exp := range p.Experience {
		fmt.Fprintf(&sb, "- %s at %s (%s)\n", exp.Title, exp.Company, exp.Duration)
	}

	fmt.Fprintf(&sb, "\nCompany: %s, %s, %d employees\n", org.Name, orDash(org.Industry), org.Size)
	if org.Description != "" {
		fmt.Fprintf(&sb, "Company description: %s\n", org.Description)
	}

	fmt.Fprintf(&sb, "\nIntent signals (%d found): urgency %s, sentiment %s, budget cycle %s\n",
		sig.Signals, sig.Urgency, sig.Sentiment, sig.BudgetCycle)
	if len(sig.PainPoints) > 0 {
		fmt.Fprintf(&sb, "Likely pain points: %s\n", strings.Join(sig.PainPoints, "; "))
	}

	if len(snippets) > 0 {
		sb.WriteString("\nRelevant internal knowledge:\n")
		for _, s := range snippets {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
	}

	sb.WriteString("\nCover: who they are, why now, recommended angle, and risks. Keep it under 300 words.")
	return sb.String()
}

// buildOutreachPrompt assembles the per-sender message prompt.
func buildOutreachPrompt(p model.Profile, org model.Organization, sig model.IntentSignals, summary string, sender Sender, persona string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a %s writing a first-touch outreach email.\n\n", sender.Role)
	fmt.Fprintf(&sb, "Recipient: %s, %s at %s.\n", p.Name, p.Title, p.Company)
	fmt.Fprintf(&sb, "Their communication style reads as %s; match that tone.\n", persona)
	fmt.Fprintf(&sb, "Your angle: %s.\n\n", sender.Focus)

	fmt.Fprintf(&sb, "Strategic brief:\n%s\n\n", summary)
	if sig.Urgency != "" {
		fmt.Fprintf(&sb, "Urgency: %s. Budget cycle: %s.\n\n", sig.Urgency, sig.BudgetCycle)
	}

	sb.WriteString("Respond in exactly this format:\n")
	sb.WriteString("Subject: <subject line>\n")
	sb.WriteString("Message: <the email body, 80-120 words, no signature>\n")
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
