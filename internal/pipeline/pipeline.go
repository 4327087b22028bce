// Package pipeline drives one analysis job from submission to its
// terminal state: fetch, enrich, derive, summarize, generate, score,
// persist. Submission returns immediately; the stage sequence runs as a
// background continuation that mutates only its own job record.
package pipeline

import (
	"context"
	"regexp"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-engine/internal/generate"
	"github.com/sells-group/outreach-engine/internal/model"
	"github.com/sells-group/outreach-engine/internal/signals"
	"github.com/sells-group/outreach-engine/internal/store"
	"github.com/sells-group/outreach-engine/pkg/proxycurl"
)

// ErrInvalidProfileURL is returned by Submit for malformed profile URLs.
var ErrInvalidProfileURL = eris.New("pipeline: invalid profile url")

var profileURLPattern = regexp.MustCompile(`^https://(www\.)?linkedin\.com/in/[A-Za-z0-9-]+/?$`)

// ContentGenerator is the generation surface the pipeline depends on.
// Satisfied by generate.Generator.
type ContentGenerator interface {
	Summarize(ctx context.Context, p model.Profile, org model.Organization, sig model.IntentSignals, snippets []string) (string, error)
	Outreach(ctx context.Context, p model.Profile, org model.Organization, sig model.IntentSignals, summary string) ([]model.OutreachMessage, error)
	Senders() []generate.Sender
}

// SnippetProvider serves generation context from the knowledge engine.
type SnippetProvider interface {
	Snippets(query string, n int) []string
}

// Pipeline owns the job registry and runs analysis continuations.
type Pipeline struct {
	registry  *Registry
	store     store.Store
	enrich    proxycurl.Client
	signals   *signals.Engine
	generator ContentGenerator
	snippets  SnippetProvider

	retention    time.Duration
	snippetCount int
	now          func() time.Time
}

// Options carries the pipeline's collaborators and tuning.
type Options struct {
	Registry     *Registry
	Store        store.Store
	Enrich       proxycurl.Client
	Signals      *signals.Engine
	Generator    ContentGenerator
	Snippets     SnippetProvider // optional
	Retention    time.Duration
	SnippetCount int
}

// New assembles a Pipeline.
func New(opts Options) *Pipeline {
	if opts.SnippetCount <= 0 {
		opts.SnippetCount = 3
	}
	return &Pipeline{
		registry:     opts.Registry,
		store:        opts.Store,
		enrich:       opts.Enrich,
		signals:      opts.Signals,
		generator:    opts.Generator,
		snippets:     opts.Snippets,
		retention:    opts.Retention,
		snippetCount: opts.SnippetCount,
		now:          time.Now,
	}
}

// Submit validates the profile URL, registers a new job, and starts its
// continuation. It returns the job id without waiting for any stage.
func (p *Pipeline) Submit(ctx context.Context, profileURL string) (string, error) {
	if !profileURLPattern.MatchString(profileURL) {
		return "", eris.Wrapf(ErrInvalidProfileURL, "pipeline: submit %q", profileURL)
	}

	now := p.now()
	job := &model.Job{
		ID:         NewJobID(),
		ProfileURL: profileURL,
		Status:     model.JobStatusStarted,
		Progress:   0,
		Stage:      "queued",
		StartedAt:  now,
		ExpiresAt:  now.Add(p.retention),
	}
	p.registry.Add(job)

	zap.L().Info("analysis submitted",
		zap.String("job_id", job.ID),
		zap.String("profile_url", profileURL))

	// The continuation outlives the submitting request.
	go p.run(context.WithoutCancel(ctx), job.ID, profileURL)

	return job.ID, nil
}

// Get returns the job by id: in-memory first, then the durable tier.
func (p *Pipeline) Get(ctx context.Context, id string) (*model.Job, error) {
	if job, ok := p.registry.Get(id); ok {
		return job, nil
	}
	job, err := p.store.GetResult(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: get job %s", id)
	}
	return job, nil
}

// Registry exposes the job registry, for the sweeper lifecycle.
func (p *Pipeline) Registry() *Registry {
	return p.registry
}

func (p *Pipeline) run(ctx context.Context, jobID, profileURL string) {
	started := p.now()

	// Stage 1: fetch profile.
	p.checkpoint(jobID, 10, "fetching_profile")
	raw, err := p.enrich.FetchProfile(ctx, profileURL)
	if err != nil {
		p.fail(jobID, err, "UPSTREAM_ERROR")
		return
	}
	profile := model.DecodeProfile(raw)

	// Stage 2: resolve organization. Failure substitutes a placeholder,
	// never aborts the job.
	p.checkpoint(jobID, 25, "resolving_organization")
	org := p.resolveOrganization(ctx, raw, profile)

	// Stage 3: derive intent signals.
	p.checkpoint(jobID, 40, "deriving_signals")
	sig := p.signals.Derive(profile.Title)

	// Stage 4: strategic brief, with best-effort knowledge context.
	p.checkpoint(jobID, 60, "summarizing")
	summary, err := p.generator.Summarize(ctx, profile, org, sig, p.contextSnippets(profile, sig))
	if err != nil {
		p.fail(jobID, err, "GENERATION_ERROR")
		return
	}

	// Stage 5: outreach messages, falling back to the deterministic set.
	p.checkpoint(jobID, 80, "generating_outreach")
	messages, err := p.generator.Outreach(ctx, profile, org, sig, summary)
	if err != nil {
		zap.L().Warn("outreach generation failed, using fallback set",
			zap.String("job_id", jobID), zap.Error(err))
		messages = generate.FallbackMessages(profile, org, p.generator.Senders())
	}

	// Stage 6: metrics.
	p.checkpoint(jobID, 95, "scoring")
	metrics := ComputeMetrics(profile, org, sig)

	// Stage 7: assemble, complete, write through.
	completed := p.now()
	result := &model.AnalysisResult{
		Profile:          profile,
		Organization:     org,
		Signals:          sig,
		Summary:          summary,
		OutreachMessages: messages,
		Metrics:          metrics,
		Metadata: model.ResultMetadata{
			JobID:          jobID,
			AnalyzedURL:    profileURL,
			AnalyzedAt:     completed,
			ProcessingTime: completed.Sub(started).Milliseconds(),
		},
	}

	p.registry.Update(jobID, func(j *model.Job) {
		j.Status = model.JobStatusCompleted
		j.Progress = 100
		j.Stage = "completed"
		j.Result = result
	})

	if job, ok := p.registry.Get(jobID); ok {
		if err := p.store.SaveResult(ctx, job); err != nil {
			zap.L().Error("durable write-through failed",
				zap.String("job_id", jobID), zap.Error(err))
		}
	}

	zap.L().Info("analysis completed",
		zap.String("job_id", jobID),
		zap.Int("overall_score", metrics.OverallScore),
		zap.Int64("processing_ms", result.Metadata.ProcessingTime))
}

func (p *Pipeline) resolveOrganization(ctx context.Context, raw *model.RawProfile, profile model.Profile) model.Organization {
	placeholder := model.Organization{
		Name:        profile.Company,
		Size:        0,
		Industry:    "Unknown",
		Description: "No company information available",
	}

	orgURL := raw.PrimaryCompanyURL()
	if orgURL == "" {
		return placeholder
	}
	rawOrg, err := p.enrich.FetchOrganization(ctx, orgURL)
	if err != nil {
		zap.L().Warn("organization fetch failed, using placeholder",
			zap.String("org_url", orgURL), zap.Error(err))
		return placeholder
	}
	return model.DecodeOrganization(rawOrg)
}

func (p *Pipeline) contextSnippets(profile model.Profile, sig model.IntentSignals) []string {
	if p.snippets == nil {
		return nil
	}
	query := profile.Title
	if len(sig.Keywords) > 0 {
		query += " " + sig.Keywords[0]
	}
	return p.snippets.Snippets(query, p.snippetCount)
}

func (p *Pipeline) checkpoint(jobID string, progress int, stage string) {
	p.registry.Update(jobID, func(j *model.Job) {
		j.Status = model.JobStatusProcessing
		j.Progress = progress
		j.Stage = stage
	})
}

// fail records the terminal error state. Errored jobs are never written
// to durable storage.
func (p *Pipeline) fail(jobID string, err error, code string) {
	zap.L().Error("analysis failed",
		zap.String("job_id", jobID),
		zap.String("code", code),
		zap.Error(err))

	p.registry.Update(jobID, func(j *model.Job) {
		j.Status = model.JobStatusError
		j.Stage = "failed"
		j.Error = &model.ErrorInfo{
			Message:   err.Error(),
			Code:      code,
			Timestamp: p.now(),
		}
	})
}
