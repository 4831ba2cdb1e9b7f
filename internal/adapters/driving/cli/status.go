package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ingest progress and the active manual",
	Long: `Prints the latest ingest progress snapshot. The snapshot is shared
through a status file, so this works while an ingest runs in another
terminal.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output the progress snapshot as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	progress, err := ingestService.Status()
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}

	if statusJSON {
		data, err := json.Marshal(progress)
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Ingest:  %s\n", describeProgress(progress))
	active := "(none)"
	if m := activeManual(cmd); m != nil {
		active = fmt.Sprintf("%s (%s, %d chunks)", m.Name, m.Status, m.ChunkCount)
	}
	cmd.Printf("Active:  %s\n", active)
	return nil
}

func describeProgress(p domain.Progress) string {
	switch {
	case p.Phase == domain.PhaseIdle:
		return "idle"
	case p.Phase == domain.PhaseError:
		return "failed"
	case p.Done():
		return "complete"
	default:
		return fmt.Sprintf("%s %d%%", p.Phase, p.Progress)
	}
}
