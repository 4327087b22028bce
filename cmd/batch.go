package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/outreach-engine/internal/model"
)

var (
	batchCSV  string
	batchWait time.Duration
)

type batchRow struct {
	URL    string
	JobID  string
	Status model.JobStatus
	Score  int
	Err    string
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze every profile URL in a CSV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initAnalysis(ctx, "analysis")
		if err != nil {
			return err
		}
		defer env.Close()

		urls, err := readURLColumn(batchCSV)
		if err != nil {
			return err
		}
		if len(urls) == 0 {
			return eris.Errorf("no profile URLs found in %s", batchCSV)
		}
		zap.L().Info("batch started",
			zap.Int("profiles", len(urls)),
			zap.Int("max_concurrent", cfg.Batch.MaxConcurrent))

		rows := make([]batchRow, len(urls))
		var mu sync.Mutex

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrent)
		for i, url := range urls {
			g.Go(func() error {
				row := batchRow{URL: url}
				defer func() {
					mu.Lock()
					rows[i] = row
					mu.Unlock()
				}()

				id, err := env.Pipeline.Submit(gctx, url)
				if err != nil {
					row.Status = model.JobStatusError
					row.Err = err.Error()
					return nil
				}
				row.JobID = id

				job, err := awaitJob(gctx, env, id, batchWait)
				if err != nil {
					row.Status = model.JobStatusError
					row.Err = err.Error()
					return nil
				}
				row.Status = job.Status
				if job.Result != nil {
					row.Score = job.Result.Metrics.OverallScore
				}
				if job.Error != nil {
					row.Err = job.Error.Message
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		completed := 0
		for _, row := range rows {
			if row.Status == model.JobStatusCompleted {
				completed++
				fmt.Printf("%s  score=%d  job=%s\n", row.URL, row.Score, row.JobID)
			} else {
				fmt.Printf("%s  FAILED: %s\n", row.URL, row.Err)
			}
		}
		fmt.Printf("\n%d/%d profiles analyzed\n", completed, len(rows))
		return nil
	},
}

// awaitJob polls until the job reaches a terminal state or the wait
// budget runs out.
func awaitJob(ctx context.Context, env *appEnv, id string, wait time.Duration) (*model.Job, error) {
	deadline := time.After(wait)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, eris.Errorf("job %s did not finish within %s", id, wait)
		case <-ticker.C:
		}

		job, err := env.Pipeline.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if job.Status.Terminal() {
			return job, nil
		}
	}
}

// readURLColumn reads the first column of a CSV, skipping a header row
// and blank lines.
func readURLColumn(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "parse %s", path)
	}

	var urls []string
	for i, rec := range records {
		if len(rec) == 0 {
			continue
		}
		url := strings.TrimSpace(rec[0])
		if url == "" {
			continue
		}
		if i == 0 && !strings.HasPrefix(url, "http") {
			continue // header row
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchCSV, "csv", "", "CSV file with profile URLs in the first column (required)")
	batchCmd.Flags().DurationVar(&batchWait, "wait", 5*time.Minute, "maximum wait per profile")
	batchCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(batchCmd)
}
