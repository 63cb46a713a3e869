package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"studysync-service/internal/config"
	"studysync-service/internal/infra/postgres"
)

// NewStatsCmd prints how many generation calls were made per kind and how many succeeded.
func NewStatsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the generation usage log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return errors.New("postgres url not configured")
			}
			pool, err := pgxpool.Connect(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			summaries, err := postgres.NewGenerationLog(pool).Summarize(cmd.Context())
			if err != nil {
				return err
			}
			return writeSummaries(cmd.OutOrStdout(), summaries)
		},
	}
}

func writeSummaries(w io.Writer, summaries []postgres.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tTOTAL\tOK")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", s.Kind, s.Total, s.OK)
	}
	return tw.Flush()
}
