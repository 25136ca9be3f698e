package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/okian/epidata/internal/bench"
	"github.com/okian/epidata/pkg/epidata"
	"github.com/okian/epidata/pkg/logger"
	"github.com/spf13/cobra"
)

const defaultBenchRequests = 100

func (r *runner) benchCommand() *cobra.Command {
	var cfg bench.Config

	names := make([]string, 0, len(bench.Sources))
	for name := range bench.Sources {
		names = append(names, name)
	}
	slices.Sort(names)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Send concurrent metadata requests and report latency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc := r.newService()
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer svc.Stop()

			return svc.Run(ctx, "bench", func(ctx context.Context, c *epidata.Client) error {
				stats, err := bench.Run(ctx, c, cfg, logger.Named("bench"))
				if err != nil {
					return err
				}
				return r.print(cmd.OutOrStdout(), stats)
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&cfg.Source, "source", epidata.SourceMeta, fmt.Sprintf("source to request (%s)", strings.Join(names, ", ")))
	fl.IntVar(&cfg.Requests, "requests", defaultBenchRequests, "total requests to send")
	fl.IntVar(&cfg.Workers, "workers", 0, "requests in flight, 0 for CPU cores * 2")
	return cmd
}
