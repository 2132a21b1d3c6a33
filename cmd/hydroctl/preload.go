package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hydroviewer/hydroviewer/internal/worker"
)

func newPreloadCmd(c *cli) *cobra.Command {
	var (
		concurrency int
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "preload",
		Short: "Resolve every data domain once and report failures",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.pipeline(nil)
			if err != nil {
				return err
			}

			cfg := worker.DefaultPreloadConfig()
			cfg.Concurrency = concurrency
			cfg.Timeout = timeout
			result := worker.NewPreloadJob(worker.PreloadJobConfig{
				Config:   cfg,
				Logger:   c.logger,
				Resolver: p.Resolver,
			}).Run(cmd.Context())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mode: %s\n", p.Mode())
			for _, d := range result.Loaded {
				fmt.Fprintf(out, "ok    %s\n", d)
			}
			for _, e := range result.Errors {
				fmt.Fprintf(out, "FAIL  %s: %s\n", e.Domain, e.Error)
			}
			fmt.Fprintf(out, "loaded %d, failed %d in %s\n", len(result.Loaded), result.Failed(), result.Duration.Round(time.Millisecond))

			if result.Failed() > 0 {
				return fmt.Errorf("%d domains failed to resolve", result.Failed())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 3, "domains resolved in parallel")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "per-domain timeout")
	return cmd
}
