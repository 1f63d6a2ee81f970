package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsawler/quire"
	"github.com/tsawler/quire/metrics"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Verbose    bool
	PolicyPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "quire",
		Short: "Paginate a block document into sized pages",
		Long: `Quire lays a semantic block document out into discrete pages:
it measures text, flows blocks through sections and columns, and resolves
page-number tokens in headers and footers.`,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "diagnostic logging to stderr")
	cmd.PersistentFlags().StringVar(&opts.PolicyPath, "policy", "", "operational policy file (YAML)")

	cmd.AddCommand(newLayoutCommand(opts))

	return cmd
}

func newLayoutCommand(rootOpts *rootOptions) *cobra.Command {
	var bodyTokens bool

	cmd := &cobra.Command{
		Use:   "layout <doc.yaml>",
		Short: "Lay a document out and print its page map",
		Long: `Layout reads a YAML document description, runs a full layout pass,
and prints the resulting page map followed by a metrics summary.

Warnings (convergence budget exhausted, cache thrash) go to stderr;
they are advisory and never fail the layout.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(rootOpts, bodyTokens, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&bodyTokens, "body-tokens", false, "resolve page-number tokens in body content too")

	return cmd
}

func runLayout(rootOpts *rootOptions, bodyTokens bool, docPath string, cmd *cobra.Command) error {
	blocks, sections, headers, err := loadDocument(docPath)
	if err != nil {
		return err
	}

	policy := quire.DefaultPolicy()
	if rootOpts.PolicyPath != "" {
		if policy, err = quire.LoadPolicy(rootOpts.PolicyPath); err != nil {
			return err
		}
	}

	opts := []quire.Option{
		quire.WithPolicy(policy),
		quire.WithBodyTokenResolution(bodyTokens),
	}
	if headers != nil {
		opts = append(opts, quire.WithHeaders(headers))
	}
	if rootOpts.Verbose {
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		opts = append(opts, quire.WithVerboseLogging(logger))
	}

	session, err := quire.New(blocks, sections, opts...)
	if err != nil {
		return err
	}

	layout, snapshot, warnings, err := session.Layout(context.Background())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, layout.Summary())
	printSnapshot(out, snapshot)

	if len(warnings) > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), metrics.FormatWarnings(warnings))
	}
	return nil
}

func printSnapshot(out io.Writer, s *metrics.Snapshot) {
	fmt.Fprintf(out, "tokens: %d iteration(s), %d affected block(s), converged=%v, %.1fms\n",
		s.PageTokens.Iterations, s.PageTokens.AffectedBlocks, s.PageTokens.Converged, s.PageTokens.TotalTimeMs)
	fmt.Fprintf(out, "cache: %d hit(s), %d miss(es), rate %.2f, %d entries, ~%d bytes, %d eviction(s)\n",
		s.HeaderFooterCache.Hits, s.HeaderFooterCache.Misses, s.HeaderFooterCache.HitRate,
		s.HeaderFooterCache.CacheSize, s.HeaderFooterCache.MemoryEstimate, s.HeaderFooterCache.Evictions)
	fmt.Fprintf(out, "timings: total %.1fms, measure %.1fms, paginate %.1fms, resolve %.1fms, headers %.1fms\n",
		s.Layout.TotalTimeMs, s.Layout.MeasureTimeMs, s.Layout.PaginationTimeMs,
		s.Layout.TokenResolutionTimeMs, s.Layout.HeaderFooterTimeMs)
}
