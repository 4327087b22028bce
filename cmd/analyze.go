package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-engine/internal/model"
)

var (
	analyzeURL  string
	analyzeWait time.Duration
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one prospect profile and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initAnalysis(ctx, "analysis")
		if err != nil {
			return err
		}
		defer env.Close()

		id, err := env.Pipeline.Submit(ctx, analyzeURL)
		if err != nil {
			return err
		}
		zap.L().Info("analysis started", zap.String("job_id", id))

		deadline := time.After(analyzeWait)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-deadline:
				return eris.Errorf("analysis %s did not finish within %s", id, analyzeWait)
			case <-ticker.C:
			}

			job, err := env.Pipeline.Get(ctx, id)
			if err != nil {
				return err
			}
			if !job.Status.Terminal() {
				zap.L().Debug("analysis in progress",
					zap.Int("progress", job.Progress),
					zap.String("stage", job.Stage))
				continue
			}

			if job.Status == model.JobStatusError {
				return eris.Errorf("analysis failed: %s", job.Error.Message)
			}

			out, err := json.MarshalIndent(job.Result, "", "  ")
			if err != nil {
				return eris.Wrap(err, "render result")
			}
			fmt.Println(string(out))
			return nil
		}
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeURL, "url", "", "profile URL to analyze (required)")
	analyzeCmd.Flags().DurationVar(&analyzeWait, "wait", 5*time.Minute, "maximum time to wait for completion")
	analyzeCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(analyzeCmd)
}
