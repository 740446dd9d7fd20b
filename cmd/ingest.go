package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/minedocs/internal/pipeline"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Process the next batch of technical reports",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		applyIngestFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return err
		}

		st, err := initStore(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close() //nolint:errcheck

		p, err := buildPipeline(ctx, cfg, st)
		if err != nil {
			return err
		}

		report, err := p.Run(ctx)
		if report != nil {
			formatReport(os.Stdout, report)
		}
		if err != nil {
			return eris.Wrap(err, "ingest")
		}

		zap.L().Info("ingest complete",
			zap.Int("succeeded", report.Succeeded),
			zap.Int("failed", report.Failed),
		)
		return nil
	},
}

// applyIngestFlags overrides config with any flags set on cmd.
func applyIngestFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("folder") {
		cfg.Blob.Folder, _ = cmd.Flags().GetString("folder")
	}
	if cmd.Flags().Changed("limit") {
		cfg.Pipeline.BatchSize, _ = cmd.Flags().GetInt("limit")
	}
	if cmd.Flags().Changed("max-pages") {
		cfg.Text.MaxPages, _ = cmd.Flags().GetInt("max-pages")
	}
}

func formatReport(w io.Writer, r *pipeline.Report) {
	if len(r.Documents) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DOCUMENT\tSTAGE\tRESULT\tPROJECT\tHIGHLIGHTS")
		for _, d := range r.Documents {
			result := "ok"
			if !d.OK() {
				result = fmt.Sprintf("%s (%s)", d.Kind, d.Class)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
				d.Name, d.Stage, result, truncateID(d.ProjectID), d.Highlights)
		}
		tw.Flush() //nolint:errcheck
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Successful: %d\n", r.Succeeded)
	fmt.Fprintf(w, "Failed: %d\n", r.Failed)

	for _, d := range r.Failures() {
		fmt.Fprintf(w, "  %s: %v\n", d.Name, d.Err)
	}
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}

func init() {
	ingestCmd.Flags().String("folder", "", "blob folder to list (default from config)")
	ingestCmd.Flags().Int("limit", 5, "max documents to process per run")
	ingestCmd.Flags().Int("max-pages", 50, "max pages of text to read per document")
	rootCmd.AddCommand(ingestCmd)
}
