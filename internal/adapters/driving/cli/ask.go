package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var (
	askJSON       bool
	askShowChunks bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the active manual",
	Long: `Classifies the question's intent, retrieves the most similar manual
sections and asks the LLM for an answer grounded only in those sections.

Quote the question or pass it as several words.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVarP(&askShowChunks, "chunks", "k", false, "also print the retrieved manual sections")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if qaService == nil {
		return errNotConfigured("question answering")
	}

	restoreActive(cmd)
	question := strings.Join(args, " ")
	answer, err := qaService.Ask(cmd.Context(), question)
	if err != nil {
		return fmt.Errorf("ask failed: %w", friendly(err))
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Answer)
	if answer.Intent != "" {
		cmd.Printf("\n(intent: %s)\n", answer.Intent)
	}
	if askShowChunks {
		printHits(cmd, answer.Chunks)
	}
	return nil
}

func printHits(cmd *cobra.Command, hits []domain.SearchHit) {
	if len(hits) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, h := range hits {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, h.ID, h.Score)
		cmd.Printf("      %s\n", snippet(h.Text, 160))
	}
}

// snippet collapses whitespace and truncates to max runes.
func snippet(text string, maxRunes int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= maxRunes {
		return text
	}
	return string(r[:maxRunes-3]) + "..."
}
