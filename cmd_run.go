package main

import (
	"fmt"
	"path/filepath"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/service"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <document>",
	Short: "Analyse one document and wait for the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}

		out := cmd.ErrOrStderr()
		progress := service.NewMonotonicProgress(service.ProgressFunc(func(percent int, phase string) {
			fmt.Fprintf(out, "[%3d%%] %s\n", percent, phase)
		}))

		job, err := a.orch.RunPipeline(ctx, args[0], progress)
		if err != nil {
			if stage := service.FailedStage(err); stage != "" {
				return fmt.Errorf("stage %s failed: %w", stage, err)
			}
			return err
		}

		scope := a.orch.Scope(job)
		fmt.Fprintf(out, "job %s finished, artifacts in %s\n", job.ID, filepath.Join(a.store.Root(), scope))
		return printSummary(cmd.OutOrStdout(), a.store, scope, false)
	},
}
