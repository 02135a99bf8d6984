package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/progress"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/stage"
)

var statusProjectID string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stage checkpoints for a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if statusProjectID == "" {
			return eris.New("--project is required")
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		ps := progress.NewStore(e.Store)
		for _, name := range stage.Names() {
			cp, err := ps.Load(ctx, statusProjectID, name)
			if err != nil {
				return err
			}
			if cp == nil {
				fmt.Printf("%-8s pending\n", name)
				continue
			}
			line := fmt.Sprintf("%-8s %-7s %d/%d", name, cp.Status, cp.Completed, cp.Total)
			if len(cp.Skipped) > 0 {
				line += fmt.Sprintf("  (%d skipped)", len(cp.Skipped))
			}
			if cp.Error != "" {
				line += "  error: " + cp.Error
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusProjectID, "project", "", "project id")
	rootCmd.AddCommand(statusCmd)
}
