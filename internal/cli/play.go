package cli

import (
	"fmt"

	"certprep/internal/app"
	"certprep/internal/infra/file"
	"certprep/pkg/logger"
	"certprep/pkg/metrics"
	"github.com/spf13/cobra"
)

// NewPlayCmd runs an interactive quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		limit   int
		shuffle bool
		seed    int64
	)
	cmd := &cobra.Command{
		Use:   "play FILE",
		Short: "Take a quiz from a JSON question file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, *configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("limit") {
				cfg.Quiz.Limit = limit
			}
			if cmd.Flags().Changed("shuffle") {
				cfg.Quiz.Shuffle = shuffle
			}
			if cmd.Flags().Changed("seed") {
				cfg.Quiz.Seed = seed
			}
			if cfg.Quiz.Limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}

			ctx := cmd.Context()
			log := logger.Named("play")
			rec := metrics.New()

			board, closeStore, err := openLeaderboard(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			banks := file.NewBankLoader("", file.WithLogger(log.Named("bank")), file.WithMetrics(rec))
			loader := app.NewLoader(banks, app.Selection{
				Limit:   cfg.Quiz.Limit,
				Shuffle: cfg.Quiz.Shuffle,
				Seed:    cfg.Quiz.Seed,
			})
			flow := app.NewFlow(board, app.WithFlowLogger(log), app.WithFlowMetrics(rec))

			term := newTerminal(cmd.InOrStdin(), cmd.OutOrStdout(), flow, loader, args[0])
			runErr := term.Run(ctx)

			if cfg.Metrics.Textfile != "" {
				if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
					log.Warn(ctx, "metrics textfile not written", logger.String("path", cfg.Metrics.Textfile), logger.Error(err))
				}
			}
			return runErr
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of questions (0 = all)")
	cmd.Flags().BoolVar(&shuffle, "shuffle", false, "shuffle questions before applying the limit")
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed (0 = time based)")
	return cmd
}
