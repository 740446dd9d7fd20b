package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/minedocs/internal/config"
	"github.com/sells-group/minedocs/internal/pipeline"
	"github.com/sells-group/minedocs/internal/resilience"
)

func TestFormatReport(t *testing.T) {
	r := &pipeline.Report{
		Listed: 3, Candidates: 2, Attempted: 2, Succeeded: 1, Failed: 1,
		Documents: []pipeline.DocumentResult{
			{
				Name:       "Crater Lake PFS.pdf",
				Stage:      pipeline.StageDone,
				ProjectID:  "0b6f2a1c-9d4e-4c1a-8a43-5b7c6d2e1f00",
				Highlights: 2,
			},
			{
				Name:  "scan.pdf",
				Stage: pipeline.StageText,
				Kind:  pipeline.KindExtraction,
				Class: resilience.ClassPermanent,
				Err:   errors.New("pipeline: insufficient text"),
			},
		},
	}

	var buf bytes.Buffer
	formatReport(&buf, r)

	out := buf.String()
	assert.Contains(t, out, "DOCUMENT")
	assert.Contains(t, out, "Crater Lake PFS.pdf")
	assert.Contains(t, out, "0b6f2a1c")
	assert.NotContains(t, out, "0b6f2a1c-9d4e")
	assert.Contains(t, out, "extraction (permanent)")
	assert.Contains(t, out, "Successful: 1\n")
	assert.Contains(t, out, "Failed: 1\n")
	assert.Contains(t, out, "scan.pdf: pipeline: insufficient text")
}

func TestFormatReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	formatReport(&buf, &pipeline.Report{})

	assert.Equal(t, "Successful: 0\nFailed: 0\n", buf.String())
}

func TestApplyIngestFlags(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })
	cfg = &config.Config{
		Blob:     config.BlobConfig{Folder: "mining-documents"},
		Pipeline: config.PipelineConfig{BatchSize: 5},
		Text:     config.TextConfig{MaxPages: 50},
	}

	cmd := &cobra.Command{}
	cmd.Flags().String("folder", "", "")
	cmd.Flags().Int("limit", 5, "")
	cmd.Flags().Int("max-pages", 50, "")
	require.NoError(t, cmd.Flags().Set("limit", "20"))
	require.NoError(t, cmd.Flags().Set("folder", "reports-2024"))

	applyIngestFlags(cmd)
	assert.Equal(t, "reports-2024", cfg.Blob.Folder)
	assert.Equal(t, 20, cfg.Pipeline.BatchSize)
	assert.Equal(t, 50, cfg.Text.MaxPages)
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "-", truncateID(""))
	assert.Equal(t, "abc", truncateID("abc"))
	assert.Equal(t, "abcdefgh", truncateID("abcdefghijkl"))
}
