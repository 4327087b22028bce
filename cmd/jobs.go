package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var jobsID string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect analysis jobs",
}

var jobsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Look up one job by id",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Status lookups only need the durable tier; in-memory state
		// belongs to the process that ran the analysis.
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		job, err := st.GetResult(ctx, jobsID)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(job, "", "  ")
		if err != nil {
			return eris.Wrap(err, "render job")
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	jobsGetCmd.Flags().StringVar(&jobsID, "id", "", "job id (required)")
	jobsGetCmd.MarkFlagRequired("id")
	jobsCmd.AddCommand(jobsGetCmd)
	rootCmd.AddCommand(jobsCmd)
}
