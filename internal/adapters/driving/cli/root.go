// Package cli implements the manualqa command line with cobra.
//
// Commands talk to the core only through driving ports held in package
// variables. cmd/manualqa installs a Bootstrap that builds them once flags
// are parsed; tests assign the variables directly.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services are the driving ports commands depend on.
type Services struct {
	Ingest   driving.IngestService
	QA       driving.QAService
	Manuals  driving.ManualService
	Settings driving.SettingsService

	// Metrics serves /metrics for `mcp serve --metrics`. May be nil.
	Metrics MetricsHandler

	// Warnings are printed once before the command runs.
	Warnings []string
}

// Options are the global flags handed to a Bootstrap.
type Options struct {
	Verbose   bool
	Ephemeral bool
}

// Bootstrap builds the services for a command run. The returned cleanup
// runs after the command finishes.
type Bootstrap func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	ingestService   driving.IngestService
	qaService       driving.QAService
	manualService   driving.ManualService
	settingsService driving.SettingsService
	metricsHandler  MetricsHandler

	bootstrap Bootstrap
	cleanup   func()

	verboseFlag   bool
	ephemeralFlag bool
)

// skipBootstrap marks commands that must run without building services.
const skipBootstrap = "skip-bootstrap"

var rootCmd = &cobra.Command{
	Use:   "manualqa",
	Short: "Ask questions about product manuals",
	Long: `manualqa ingests product manuals (PDF or Markdown), recognises the icons
printed in them with a vision model, and answers questions grounded in the
manual text, icon meanings included.

Typical use:
  manualqa settings set vision --provider gemini
  manualqa ingest ~/Downloads/espresso.pdf
  manualqa ask "What does the snowflake icon mean?"`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print pipeline diagnostics to stderr")
	rootCmd.PersistentFlags().BoolVar(&ephemeralFlag, "ephemeral", false,
		"keep the registry and settings in memory (nothing is written to the home directory)")
}

// SetBootstrap installs the service builder used before each command.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs ready-made services, bypassing Bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	ingestService = s.Ingest
	qaService = s.QA
	manualService = s.Manuals
	settingsService = s.Settings
	metricsHandler = s.Metrics
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)
	if bootstrap == nil || cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}

	services, done, err := bootstrap(cmd.Context(), Options{Verbose: verboseFlag, Ephemeral: ephemeralFlag})
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	SetServices(services)
	cleanup = done
	for _, w := range services.Warnings {
		logger.Warn("%s", w)
	}
	return nil
}

// errNotConfigured reports a port the bootstrap did not provide.
func errNotConfigured(name string) error {
	return fmt.Errorf("%s service not configured", name)
}

// friendly rewrites well-known domain errors into actionable messages.
func friendly(err error) error {
	switch {
	case errors.Is(err, domain.ErrNoActiveManual):
		return errors.New("no active manual: run 'manualqa ingest <file>' or 'manualqa manual use <name>'")
	case errors.Is(err, domain.ErrLLMUnavailable):
		return fmt.Errorf("%w: run 'manualqa settings set llm --provider <name>'", err)
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return fmt.Errorf("%w: run 'manualqa settings set embedding --provider <name>'", err)
	default:
		return err
	}
}

// activeManual returns the registered active manual without loading its
// knowledge base, or nil.
func activeManual(cmd *cobra.Command) *domain.Manual {
	if manualService == nil {
		return nil
	}
	id, err := manualService.ActiveID(cmd.Context())
	if err != nil || id == "" {
		return nil
	}
	m, err := manualService.Get(cmd.Context(), id)
	if err != nil {
		return nil
	}
	return m
}

// restoreActive loads the previously active manual into the QA service
// when nothing is loaded yet. Failures leave the service without a manual.
func restoreActive(cmd *cobra.Command) {
	if qaService == nil || manualService == nil || qaService.ActiveManual() != nil {
		return
	}
	if _, err := manualService.LoadActive(cmd.Context()); err != nil {
		logger.Warn("Could not load the active manual: %v", err)
	}
}
