package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/stage"
)

var (
	runProjectID string
	runForce     bool
)

var runCmd = &cobra.Command{
	Use:   "run [stage]",
	Short: "Run one pipeline stage for a project",
	Long:  "Runs a stage (volume, expand, domain, score) until done or until the soft deadline pauses it. Re-invoke to resume a paused stage; --force discards its checkpoint and restarts.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if runProjectID == "" {
			return eris.New("--project is required")
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		st, err := stage.ForName(args[0], e.Deps)
		if err != nil {
			return err
		}

		result, err := e.Runner.Run(ctx, runProjectID, st, runForce)
		if err != nil {
			return err
		}

		fmt.Printf("stage %s: %s (%d/%d done, resumed from %d, %d records)\n",
			result.Stage, result.Status, result.ResumedFrom+result.Processed,
			result.Total, result.ResumedFrom, result.Merged)
		if result.Incomplete {
			fmt.Println("deadline reached; re-invoke to resume")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runProjectID, "project", "", "project id")
	runCmd.Flags().BoolVar(&runForce, "force", false, "discard the stage checkpoint and restart")
	rootCmd.AddCommand(runCmd)
}
