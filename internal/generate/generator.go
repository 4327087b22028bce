// Package generate produces the strategic brief and persona-tagged
// outreach messages for a prospect via the Anthropic API, with a
// deterministic fallback set when generation fails.
package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-engine/internal/config"
	"github.com/sells-group/outreach-engine/internal/model"
	"github.com/sells-group/outreach-engine/pkg/anthropic"
)

// Sender is one outreach persona: the role writing the message and the
// angle it takes.
type Sender struct {
	Role  string
	Focus string
}

// senderFocuses assigns an angle to each configured sender role, in
// order. Extra roles beyond the list reuse the last focus.
var senderFocuses = []string{"direct_value", "consultative", "relationship", "product_depth"}

// Generator produces summaries and outreach messages.
type Generator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	senders   []Sender
}

// NewGenerator builds a Generator from configuration.
func NewGenerator(client anthropic.Client, ac config.AnthropicConfig, gc config.GenerateConfig) *Generator {
	senders := make([]Sender, 0, len(gc.Senders))
	for i, role := range gc.Senders {
		focus := senderFocuses[len(senderFocuses)-1]
		if i < len(senderFocuses) {
			focus = senderFocuses[i]
		}
		senders = append(senders, Sender{Role: role, Focus: focus})
	}
	return &Generator{
		client:    client,
		model:     ac.Model,
		maxTokens: ac.MaxTokens,
		senders:   senders,
	}
}

// Summarize produces the strategic brief for a prospect. Knowledge
// snippets are optional context.
func (g *Generator) Summarize(ctx context.Context, p model.Profile, org model.Organization, sig model.IntentSignals, snippets []string) (string, error) {
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		System:    []anthropic.SystemBlock{{Text: "You are a B2B sales strategist. Be specific and concrete."}},
		Messages: []anthropic.Message{
			{Role: "user", Content: buildSummaryPrompt(p, org, sig, snippets)},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "generate: summarize")
	}
	resp.Usage.LogCost(g.model, "summarize")

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", eris.New("generate: empty summary response")
	}
	return text, nil
}

// Outreach produces one message per configured sender. Any call or parse
// failure fails the whole set; callers substitute FallbackMessages.
func (g *Generator) Outreach(ctx context.Context, p model.Profile, org model.Organization, sig model.IntentSignals, summary string) ([]model.OutreachMessage, error) {
	persona := InferPersona(summary)
	messages := make([]model.OutreachMessage, 0, len(g.senders))

	for _, sender := range g.senders {
		resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     g.model,
			MaxTokens: g.maxTokens,
			Messages: []anthropic.Message{
				{Role: "user", Content: buildOutreachPrompt(p, org, sig, summary, sender, persona)},
			},
		})
		if err != nil {
			return nil, eris.Wrapf(err, "generate: outreach as %s", sender.Role)
		}
		resp.Usage.LogCost(g.model, "outreach")

		subject, body, ok := parseMessage(resp.Text())
		if !ok {
			return nil, eris.Errorf("generate: malformed outreach response from %s", sender.Role)
		}
		messages = append(messages, model.OutreachMessage{
			Sender:  sender.Role,
			Subject: subject,
			Body:    body,
			Focus:   sender.Focus,
		})
	}

	zap.L().Info("outreach messages generated",
		zap.Int("count", len(messages)),
		zap.String("persona", persona))
	return messages, nil
}

// Senders exposes the configured personas for fallback construction.
func (g *Generator) Senders() []Sender {
	return g.senders
}

// parseMessage extracts the Subject: line and the Message: body from a
// generated response. Everything after the Message: marker belongs to
// the body.
func parseMessage(text string) (subject, body string, ok bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if s, found := strings.CutPrefix(trimmed, "Subject:"); found {
			subject = strings.TrimSpace(s)
			continue
		}
		if b, found := strings.CutPrefix(trimmed, "Message:"); found {
			rest := append([]string{strings.TrimSpace(b)}, lines[i+1:]...)
			body = strings.TrimSpace(strings.Join(rest, "\n"))
			break
		}
	}
	return subject, body, subject != "" && body != ""
}

// FallbackMessages returns the deterministic message set used when
// generation fails or parses to nothing.
func FallbackMessages(p model.Profile, org model.Organization, senders []Sender) []model.OutreachMessage {
	company := p.Company
	if org.Name != "" && org.Name != "Unknown Company" {
		company = org.Name
	}

	templates := []struct {
		subject string
		body    string
	}{
		{
			subject: fmt.Sprintf("Quick question about %s's support operations", company),
			body: fmt.Sprintf("Hi %s,\n\nI noticed your work as %s at %s and wanted to reach out. "+
				"Teams in your position often tell us their service desk eats hours that should go to higher-value work. "+
				"Would you be open to a short call to compare notes?", p.Name, p.Title, company),
		},
		{
			subject: "An idea for reducing manual workload",
			body: fmt.Sprintf("Hi %s,\n\nOrganizations like %s typically see repetitive requests dominate their queues. "+
				"We have helped similar teams automate the routine tier and free up their specialists. "+
				"Happy to share what that looked like in practice.", p.Name, company),
		},
		{
			subject: fmt.Sprintf("Resources for %s", company),
			body: fmt.Sprintf("Hi %s,\n\nI put together a short overview of how teams measure and improve service efficiency. "+
				"No pitch, just the material. Want me to send it over?", p.Name),
		},
		{
			subject: "Following up with something concrete",
			body: fmt.Sprintf("Hi %s,\n\nRather than a generic intro, here is one concrete example: "+
				"a team your size cut ticket resolution time roughly in half within a quarter. "+
				"If that is relevant to %s, I can walk you through how.", p.Name, company),
		},
	}

	messages := make([]model.OutreachMessage, 0, len(senders))
	for i, sender := range senders {
		tpl := templates[i%len(templates)]
		messages = append(messages, model.OutreachMessage{
			Sender:  sender.Role,
			Subject: tpl.subject,
			Body:    tpl.body,
			Focus:   sender.Focus,
		})
	}
	return messages
}
