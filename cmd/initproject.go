package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/stage"
)

var (
	initProjectID string
	initSeedsPath string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a project from a seeds file",
	Long:  "Loads a YAML seeds file (keywords and competitor domains) and stores it as the project's input artifact.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if initProjectID == "" {
			return eris.New("--project is required")
		}

		seeds, err := stage.LoadSeedsFile(initSeedsPath)
		if err != nil {
			return err
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		path, err := stage.SaveSeeds(ctx, e.Store, initProjectID, seeds)
		if err != nil {
			return err
		}

		zap.L().Info("project initialized",
			zap.String("project_id", initProjectID),
			zap.Int("keywords", len(seeds.Keywords)),
			zap.Int("domains", len(seeds.Domains)),
			zap.String("artifact", path),
		)
		fmt.Printf("project %s: %d keywords, %d domains\n", initProjectID, len(seeds.Keywords), len(seeds.Domains))
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initProjectID, "project", "", "project id")
	initCmd.Flags().StringVar(&initSeedsPath, "seeds", "seeds.yaml", "path to seeds YAML file")
	rootCmd.AddCommand(initCmd)
}
