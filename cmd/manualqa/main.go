// Command manualqa answers questions about product manuals.
package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/metrics"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/pdftext"
	progressfile "github.com/custodia-labs/manualqa/internal/adapters/driven/progress/file"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/render/poppler"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/manualqa/internal/answer"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/services"
	"github.com/custodia-labs/manualqa/internal/icons/classifier"
	"github.com/custodia-labs/manualqa/internal/postprocessors"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal; keys may already be in the environment.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetBootstrap(bootstrap)
	return cli.Execute(ctx)
}

// stores are the persistence adapters for one run.
type stores struct {
	config   driven.ConfigStore
	manuals  driven.ManualStore
	progress driven.ProgressReporter
	prompts  driven.PromptStore
	dataDir  string
	close    func()
}

func openStores(ephemeral bool) (*stores, error) {
	if ephemeral {
		dataDir, err := os.MkdirTemp("", "manualqa-*")
		if err != nil {
			return nil, fmt.Errorf("create scratch directory: %w", err)
		}
		return &stores{
			config:   memory.NewConfigStore(),
			manuals:  memory.NewManualStore(),
			progress: memory.NewProgressReporter(),
			dataDir:  dataDir,
			close:    func() { os.RemoveAll(dataDir) },
		}, nil
	}

	home, err := file.HomeDir()
	if err != nil {
		return nil, err
	}
	config, err := file.NewConfigStore(home)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	dataDir := filepath.Join(home, "data")
	registry, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}

	defaults := classifier.DefaultPrompts()
	maps.Copy(defaults, answer.DefaultPrompts())
	prompts, err := file.NewPromptStore(filepath.Join(home, "prompts"), defaults)
	if err != nil {
		registry.Close()
		return nil, fmt.Errorf("open prompts: %w", err)
	}

	return &stores{
		config:   config,
		manuals:  registry,
		progress: progressfile.NewReporter(filepath.Join(dataDir, "logs")),
		prompts:  prompts,
		dataDir:  dataDir,
		close:    func() { registry.Close() },
	}, nil
}

func bootstrap(_ context.Context, opts cli.Options) (*cli.Services, func(), error) {
	st, err := openStores(opts.Ephemeral)
	if err != nil {
		return nil, nil, err
	}

	settingsService := services.NewSettingsService(st.config, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		st.close()
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}

	models := ai.Init(*settings, false)
	recorder := metrics.New()

	engine := answer.NewEngine(models.LLM,
		answer.WithTopK(settings.Answer.TopK),
		answer.WithMetrics(recorder),
	)
	qa := services.NewQAService(engine, models.Embedding)
	manuals := services.NewManualService(st.manuals, qa)

	ingest := services.NewIngestService(
		st.dataDir,
		*settings,
		poppler.New(),
		pdftext.New(),
		models.Embedding,
		st.manuals,
		st.progress,
		postprocessors.NewDefaultRegistry(),
	)
	ingest.SetVision(models.Vision)
	ingest.SetQAService(qa)
	ingest.SetMetrics(recorder)
	if st.prompts != nil {
		engine.SetPromptStore(st.prompts)
		ingest.SetPromptStore(st.prompts)
	}

	cleanup := func() {
		models.Close()
		st.close()
	}

	return &cli.Services{
		Ingest:   ingest,
		QA:       qa,
		Manuals:  manuals,
		Settings: settingsService,
		Metrics:  recorder,
		Warnings: models.Warnings,
	}, cleanup, nil
}
