package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var printPayload bool

var fetchCmd = &cobra.Command{
	Use:   "fetch <reference>",
	Short: "Resolve a reference and download its audio",
	Long: `fetch resolves the reference, downloads the audio and prints a summary of
the encoded payload. With --payload only the data URI is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		resolved, resolveErr := a.resolver.Resolve(cmd.Context(), args[0])
		if resolveErr != nil {
			return resolveErr
		}
		payload, fetchErr := a.cache.Fetch(cmd.Context(), resolved)
		if fetchErr != nil {
			return fetchErr
		}

		out := cmd.OutOrStdout()
		if printPayload {
			fmt.Fprintln(out, payload.Data)
			return nil
		}
		fmt.Fprintf(out, "url:          %s\n", resolved)
		fmt.Fprintf(out, "content-type: %s\n", payload.ContentType)
		fmt.Fprintf(out, "audio:        %s\n", humanize.Bytes(uint64(payload.SourceBytes)))
		fmt.Fprintf(out, "encoded:      %s\n", humanize.Bytes(uint64(payload.Len())))
		fmt.Fprintf(out, "digest:       %s:%s\n", a.cfg.HashAlgo(), payload.Digest)
		return nil
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&printPayload, "payload", false, "print the data URI instead of a summary")
}
