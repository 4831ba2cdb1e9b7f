package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var (
	ingestName       string
	ingestNoActivate bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a PDF or Markdown manual",
	Long: `Builds a searchable knowledge base from a manual.

PDF manuals are rendered page by page; icons are cropped, de-duplicated and
labelled by the vision model, then written into the page text as tokens such
as <icon:eco_mode> before the text is chunked and embedded. Markdown manuals
are split by heading and embedded directly.

The new manual becomes the active manual unless --no-activate is given.
Re-ingesting a manual with the same name replaces its knowledge base.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "manual name (defaults to the file name)")
	ingestCmd.Flags().BoolVar(&ingestNoActivate, "no-activate", false, "do not make this the active manual")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	opts := domain.IngestOptions{Name: ingestName, SkipActivate: ingestNoActivate}
	cmd.Printf("Ingesting %s...\n", args[0])

	manual, err := ingestService.Ingest(cmd.Context(), args[0], opts)
	if manual == nil && err != nil {
		return fmt.Errorf("ingest failed: %w", friendly(err))
	}

	printManualSummary(cmd, manual)
	if err != nil {
		return fmt.Errorf("manual ingested but not activated: %w", friendly(err))
	}
	if !ingestNoActivate {
		cmd.Printf("Active manual: %s\n", manual.Name)
	}
	return nil
}

func printManualSummary(cmd *cobra.Command, m *domain.Manual) {
	cmd.Printf("Manual:  %s (%s)\n", m.Name, m.Kind)
	if m.Kind == domain.ManualKindPDF {
		cmd.Printf("Pages:   %d\n", m.PageCount)
		cmd.Printf("Icons:   %d\n", m.IconCount)
	}
	cmd.Printf("Chunks:  %d\n", m.ChunkCount)
	cmd.Printf("Stored:  %s\n", m.Dir)
}
