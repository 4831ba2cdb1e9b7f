package cli

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/inbox"
	"github.com/custodia-labs/manualqa/internal/logger"
)

var (
	watchDebounce   time.Duration
	watchExisting   bool
	watchNoActivate bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Ingest manuals dropped into a directory",
	Long: `Watches a directory and ingests every PDF or Markdown manual that is
created or rewritten in it. Changes are debounced so a file still being
copied is ingested once it settles. Ingests run one at a time; each new
manual becomes active unless --no-activate is given.

Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", inbox.DefaultDebounce, "quiet period before a changed file is ingested")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also ingest manuals already in the directory")
	watchCmd.Flags().BoolVar(&watchNoActivate, "no-activate", false, "do not make ingested manuals active")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}
	logger.SetTimestamps(true)
	defer logger.SetTimestamps(false)

	w, err := inbox.New(args[0], ingestService,
		inbox.WithDebounce(watchDebounce),
		inbox.WithExisting(watchExisting),
		inbox.WithIngestOptions(domain.IngestOptions{SkipActivate: watchNoActivate}),
		inbox.WithResultFunc(func(path string, m *domain.Manual, err error) {
			name := filepath.Base(path)
			switch {
			case m == nil:
				cmd.PrintErrf("%s: failed: %v\n", name, friendly(err))
			case err != nil:
				cmd.PrintErrf("%s: ingested as %s but not activated: %v\n", name, m.Name, friendly(err))
			default:
				cmd.Printf("%s: ingested as %s (%d chunks, %d icons)\n", name, m.Name, m.ChunkCount, m.IconCount)
			}
		}),
	)
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s for manuals (Ctrl+C to stop)\n", args[0])
	return w.Run(cmd.Context())
}
