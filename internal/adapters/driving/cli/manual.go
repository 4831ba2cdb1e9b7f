package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var manualPurge bool

var manualCmd = &cobra.Command{
	Use:     "manual",
	Aliases: []string{"manuals"},
	Short:   "Manage ingested manuals",
}

var manualListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested manuals",
	Args:  cobra.NoArgs,
	RunE:  runManualList,
}

var manualUseCmd = &cobra.Command{
	Use:   "use <name|id>",
	Short: "Make a manual the active manual",
	Args:  cobra.ExactArgs(1),
	RunE:  runManualUse,
}

var manualRemoveCmd = &cobra.Command{
	Use:   "remove <name|id>",
	Short: "Unregister a manual",
	Long: `Removes a manual from the registry. Its directory of artifacts is kept
unless --purge is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runManualRemove,
}

var manualRunsCmd = &cobra.Command{
	Use:   "runs <name|id>",
	Short: "Show the ingest history of a manual",
	Args:  cobra.ExactArgs(1),
	RunE:  runManualRuns,
}

func init() {
	manualRemoveCmd.Flags().BoolVar(&manualPurge, "purge", false, "also delete the manual's files")
	manualCmd.AddCommand(manualListCmd, manualUseCmd, manualRemoveCmd, manualRunsCmd)
	rootCmd.AddCommand(manualCmd)
}

func runManualList(cmd *cobra.Command, _ []string) error {
	if manualService == nil {
		return errNotConfigured("manual")
	}

	manuals, err := manualService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list manuals: %w", err)
	}
	if len(manuals) == 0 {
		cmd.Println("No manuals ingested yet. Run 'manualqa ingest <file>'.")
		return nil
	}

	activeID, err := manualService.ActiveID(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read active manual: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tNAME\tKIND\tSTATUS\tPAGES\tICONS\tCHUNKS\tUPDATED")
	for _, m := range manuals {
		marker := ""
		if m.ID == activeID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			marker, m.Name, m.Kind, m.Status, m.PageCount, m.IconCount, m.ChunkCount,
			m.UpdatedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func runManualUse(cmd *cobra.Command, args []string) error {
	if manualService == nil {
		return errNotConfigured("manual")
	}

	m, err := manualService.Activate(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to activate %s: %w", args[0], friendly(err))
	}
	cmd.Printf("Active manual: %s (%d chunks)\n", m.Name, m.ChunkCount)
	return nil
}

func runManualRemove(cmd *cobra.Command, args []string) error {
	if manualService == nil {
		return errNotConfigured("manual")
	}

	if err := manualService.Remove(cmd.Context(), args[0], manualPurge); err != nil {
		return fmt.Errorf("failed to remove %s: %w", args[0], err)
	}
	if manualPurge {
		cmd.Printf("Removed %s and its files.\n", args[0])
	} else {
		cmd.Printf("Removed %s.\n", args[0])
	}
	return nil
}

func runManualRuns(cmd *cobra.Command, args []string) error {
	if manualService == nil {
		return errNotConfigured("manual")
	}

	runs, err := manualService.Runs(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No ingest runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tDURATION\tRESULT")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.StartedAt.Local().Format(time.DateTime), runDuration(r), runResult(r))
	}
	return w.Flush()
}

func runDuration(r domain.IngestRun) string {
	if r.FinishedAt.IsZero() {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
}

func runResult(r domain.IngestRun) string {
	switch {
	case r.Succeeded():
		return "ok"
	case r.FinishedAt.IsZero():
		return "running"
	default:
		return "failed: " + r.Error
	}
}
