package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/config"
	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/service"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the risk and compliance summary of the latest analysis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		jobID, _ := cmd.Flags().GetString("job")
		asJSON, _ := cmd.Flags().GetBool("json")
		return runSummary(cmd.OutOrStdout(), cfg, jobID, asJSON)
	},
}

// runSummary prints the summary of jobID or, without one, of the most
// recent analysis in the configured layout.
func runSummary(w io.Writer, cfg *config.Config, jobID string, asJSON bool) error {
	flat := cfg.Pipeline.Layout == config.LayoutFlat
	if jobID != "" && flat {
		return errors.New("--job needs the per_job layout")
	}
	store, err := service.NewArtifactStore(cfg.Paths.OutputDir)
	if err != nil {
		return err
	}

	scope := jobID
	if scope == "" && !flat {
		scope, err = store.LatestJob(nil)
		if errors.Is(err, service.ErrNotFound) {
			fmt.Fprintln(w, "analysis not yet run")
			return nil
		}
		if err != nil {
			return err
		}
	}
	return printSummary(w, store, scope, asJSON)
}

func init() {
	summaryCmd.Flags().String("job", "", "job ID to summarise (default: the most recent analysis)")
	summaryCmd.Flags().Bool("json", false, "print JSON instead of text")
}

type summaryOutput struct {
	Job        string                     `json:"job_id,omitempty"`
	Artifact   string                     `json:"artifact"`
	Risk       service.RiskSummary        `json:"risk"`
	Compliance *service.ComplianceSummary `json:"compliance,omitempty"`
}

// printSummary writes the summaries of scope to w. A scope without
// results prints a notice rather than failing.
func printSummary(w io.Writer, store *service.ArtifactStore, scope string, asJSON bool) error {
	clauses, artifact, err := service.LoadClauses(store, scope)
	if errors.Is(err, service.ErrNotFound) {
		fmt.Fprintln(w, "analysis not yet run")
		return nil
	}
	if err != nil {
		return err
	}

	out := summaryOutput{Job: scope, Artifact: artifact.Name, Risk: service.Summarize(clauses)}
	report, _, err := service.LoadReport(store, scope)
	switch {
	case err == nil:
		s := service.ReadReport(report, clauses)
		out.Compliance = &s
	case !errors.Is(err, service.ErrNotFound):
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	r := out.Risk
	if out.Job != "" {
		fmt.Fprintf(w, "Job:            %s\n", out.Job)
	}
	fmt.Fprintf(w, "Source:         %s\n", out.Artifact)
	fmt.Fprintf(w, "Total clauses:  %d\n", r.Total)
	fmt.Fprintf(w, "High risk:      %d\n", r.High)
	fmt.Fprintf(w, "Medium risk:    %d\n", r.Medium)
	fmt.Fprintf(w, "Low risk:       %d\n", r.Low)
	if r.Unclassified > 0 {
		fmt.Fprintf(w, "Unclassified:   %d\n", r.Unclassified)
	}
	if c := out.Compliance; c != nil {
		fmt.Fprintf(w, "Amended:        %d\n", c.AmendedCount)
		fmt.Fprintf(w, "Inserted:       %d\n", c.InsertedCount)
		fmt.Fprintf(w, "Score:          %.1f (%s)\n", c.Score, c.ScoreSource)
	}
	return nil
}
