package cmd

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var precacheCmd = &cobra.Command{
	Use:   "precache <reference>...",
	Short: "Resolve and download several references at once",
	Long: `precache resolves every reference, downloads the audio with bounded
parallelism and reports what ended up in the cache. It exits non-zero when any
reference could not be resolved or downloaded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		failed := 0
		urls := make([]string, 0, len(args))
		for _, ref := range args {
			resolved, resolveErr := a.resolver.Resolve(cmd.Context(), ref)
			if resolveErr != nil {
				failed++
				fmt.Fprintf(out, "unresolved %q: %v\n", ref, resolveErr)
				continue
			}
			urls = append(urls, resolved)
		}

		report := a.cache.Prefetch(cmd.Context(), urls, a.cfg.PrecacheConcurrency())
		failed += len(report.Failed)

		fmt.Fprintf(out, "fetched: %d, already cached: %d, failed: %d\n",
			report.Fetched, report.AlreadyCached, len(report.Failed))

		failedURLs := make([]string, 0, len(report.Failed))
		for u := range report.Failed {
			failedURLs = append(failedURLs, u)
		}
		sort.Strings(failedURLs)
		for _, u := range failedURLs {
			fmt.Fprintf(out, "  failed %s: %v\n", u, report.Failed[u])
		}

		stats := a.cache.Stats()
		fmt.Fprintf(out, "cache: %d entries, %s\n", stats.Entries, humanize.Bytes(uint64(stats.SizeBytes)))
		if all := a.latency.GetAllStats(); len(all) > 0 {
			fmt.Fprintln(out, "latency:")
			for _, s := range all {
				fmt.Fprintln(out, s)
			}
		}

		if failed > 0 {
			return fmt.Errorf("precache: %d of %d references failed", failed, len(args))
		}
		return nil
	},
}
