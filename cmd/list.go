package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/minedocs/internal/blob"
	"github.com/sells-group/minedocs/internal/model"
	"github.com/sells-group/minedocs/internal/pipeline"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List candidate reports in blob storage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cmd.Flags().Changed("folder") {
			cfg.Blob.Folder, _ = cmd.Flags().GetString("folder")
		}

		blobs, err := blob.New(ctx, cfg.Blob)
		if err != nil {
			return eris.Wrap(err, "init blob store")
		}

		p := pipeline.New(blobs, nil, nil, nil, nil, pipeline.OptionsFromConfig(cfg))
		docs, listed, err := p.Candidates(ctx)
		if err != nil {
			return eris.Wrap(err, "list")
		}

		if len(docs) == 0 {
			fmt.Fprintf(os.Stderr, "No %s documents found in %s (%d objects listed).\n",
				cfg.Pipeline.Extension, cfg.Blob.Folder, listed)
			return nil
		}

		formatDocuments(os.Stdout, docs)
		return nil
	},
}

func formatDocuments(w io.Writer, docs []model.Document) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPATH\tSIZE")
	for _, d := range docs {
		size := "-"
		if d.Size > 0 {
			size = formatSize(d.Size)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, d.Path, size)
	}
	tw.Flush() //nolint:errcheck
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}

func init() {
	listCmd.Flags().String("folder", "", "blob folder to list (default from config)")
	rootCmd.AddCommand(listCmd)
}
