package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/minedocs/internal/blob"
	"github.com/sells-group/minedocs/internal/textextract"
)

var extractCmd = &cobra.Command{
	Use:   "extract <path>",
	Short: "Extract the structured record from one report without saving it",
	Long:  "Downloads one report (or reads a local file with --local), extracts its text and prints the record the oracle returns as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		local, _ := cmd.Flags().GetBool("local")
		maxPages, _ := cmd.Flags().GetInt("max-pages")
		if !cmd.Flags().Changed("max-pages") {
			maxPages = cfg.Text.MaxPages
		}

		var data []byte
		var err error
		if local {
			data, err = os.ReadFile(args[0])
			if err != nil {
				return eris.Wrapf(err, "read %s", args[0])
			}
		} else {
			blobs, berr := blob.New(ctx, cfg.Blob)
			if berr != nil {
				return eris.Wrap(berr, "init blob store")
			}
			data, err = blobs.Download(ctx, args[0])
			if err != nil {
				return eris.Wrapf(err, "download %s", args[0])
			}
		}

		text, err := textextract.NewExtractor(cfg.Text)
		if err != nil {
			return err
		}
		res, err := text.ExtractText(ctx, data, maxPages)
		if err != nil {
			return eris.Wrap(err, "extract text")
		}
		if !textextract.Sufficient(res.Text, cfg.Text.MinChars) {
			return eris.Errorf("insufficient text: %d pages read", res.PagesRead)
		}

		extractor, err := initExtractor(cfg)
		if err != nil {
			return err
		}
		rec, err := extractor.Extract(ctx, res.Text, filepath.Base(args[0]))
		if err != nil {
			return eris.Wrap(err, "extract record")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	extractCmd.Flags().Bool("local", false, "read the report from the local filesystem")
	extractCmd.Flags().Int("max-pages", 50, "max pages of text to read")
	rootCmd.AddCommand(extractCmd)
}
