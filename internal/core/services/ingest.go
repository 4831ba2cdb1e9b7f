package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/manualqa/internal/artifact"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/icons/classifier"
	"github.com/custodia-labs/manualqa/internal/icons/dedupe"
	"github.com/custodia-labs/manualqa/internal/icons/detector"
	"github.com/custodia-labs/manualqa/internal/icons/tokenizer"
	"github.com/custodia-labs/manualqa/internal/knowledge"
	"github.com/custodia-labs/manualqa/internal/logger"
	"github.com/custodia-labs/manualqa/internal/postprocessors"
	"github.com/custodia-labs/manualqa/internal/postprocessors/merger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// ManualsDir is the directory under the data directory holding one
// sub-directory per manual.
const ManualsDir = "manuals"

// Ingest stage names, used in logs, errors and metrics.
const (
	stageRender   = "render"
	stageDetect   = "detect"
	stageDedupe   = "dedupe"
	stageClassify = "classify"
	stageTokens   = "tokens"
	stageMerge    = "merge"
	stageBuild    = "build"
)

// IngestService turns manual files into queryable knowledge bases.
//
// One ingest runs its stages sequentially. Ingests into different manual
// directories may run concurrently; a second ingest into a directory that
// is already being written is rejected with domain.ErrIngestInProgress.
type IngestService struct {
	dataDir   string
	settings  domain.AppSettings
	renderer  driven.PageRenderer
	extractor driven.TextExtractor
	embedder  driven.EmbeddingService
	manuals   driven.ManualStore
	progress  driven.ProgressReporter
	splitters *postprocessors.Registry

	// Optional collaborators.
	vision      driven.VisionService
	qa          *QAService
	metrics     driven.Metrics
	promptStore driven.PromptStore
	detectorCfg detector.Config
	sleep       classifier.Sleeper
	now         func() time.Time

	mu   sync.Mutex
	busy map[string]struct{}
}

// NewIngestService creates a new ingest service.
// Without a vision service, PDF manuals are ingested without icon tokens.
func NewIngestService(
	dataDir string,
	settings domain.AppSettings,
	renderer driven.PageRenderer,
	extractor driven.TextExtractor,
	embedder driven.EmbeddingService,
	manuals driven.ManualStore,
	progress driven.ProgressReporter,
	splitters *postprocessors.Registry,
) *IngestService {
	return &IngestService{
		dataDir:     dataDir,
		settings:    settings,
		renderer:    renderer,
		extractor:   extractor,
		embedder:    embedder,
		manuals:     manuals,
		progress:    progress,
		splitters:   splitters,
		detectorCfg: detector.DefaultConfig(),
		sleep:       time.Sleep,
		now:         time.Now,
		busy:        make(map[string]struct{}),
	}
}

// SetVision sets the vision service used to classify icons.
func (s *IngestService) SetVision(vision driven.VisionService) {
	s.vision = vision
}

// SetQAService sets the QA service that receives freshly ingested manuals.
func (s *IngestService) SetQAService(qa *QAService) {
	s.qa = qa
}

// SetMetrics sets the metrics sink.
func (s *IngestService) SetMetrics(m driven.Metrics) {
	s.metrics = m
}

// SetPromptStore sets the prompt store passed to the icon classifier.
func (s *IngestService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// SetDetectorConfig overrides the icon detector thresholds.
func (s *IngestService) SetDetectorConfig(cfg detector.Config) {
	s.detectorCfg = cfg
}

// SetSleeper replaces the classifier cooldown sleep, mainly for tests.
func (s *IngestService) SetSleeper(sleep classifier.Sleeper) {
	if sleep != nil {
		s.sleep = sleep
	}
}

// ManualDir returns the output directory for a manual name.
func (s *IngestService) ManualDir(name string) string {
	return filepath.Join(s.dataDir, ManualsDir, domain.SanitizeManualName(name))
}

// Status returns the latest ingest progress snapshot.
func (s *IngestService) Status() (domain.Progress, error) {
	return s.progress.Current()
}

// Ingest dispatches on the file extension to IngestPDF or IngestMarkdown.
func (s *IngestService) Ingest(ctx context.Context, path string, opts domain.IngestOptions) (*domain.Manual, error) {
	kind, ok := domain.ManualKindFromPath(path)
	if !ok {
		return nil, fmt.Errorf("ingest %s: %w", filepath.Base(path), domain.ErrUnsupportedType)
	}
	if kind == domain.ManualKindMarkdown {
		return s.IngestMarkdown(ctx, path, opts)
	}
	return s.IngestPDF(ctx, path, opts)
}

// IngestPDF runs the icon-aware pipeline for a PDF manual.
func (s *IngestService) IngestPDF(ctx context.Context, pdfPath string, opts domain.IngestOptions) (*domain.Manual, error) {
	job, err := s.begin(ctx, pdfPath, domain.ManualKindPDF, opts)
	if err != nil {
		return nil, err
	}
	defer s.release(job.manual.Dir)

	logger.Section("Ingest " + job.manual.Name)
	s.report(domain.PhaseIdle, 0)
	s.report(domain.PhaseIcons, 0)

	err = s.runPDF(ctx, job)
	return s.finish(ctx, job, opts, err)
}

// IngestMarkdown chunks a markdown manual by heading and embeds it.
func (s *IngestService) IngestMarkdown(ctx context.Context, mdPath string, opts domain.IngestOptions) (*domain.Manual, error) {
	job, err := s.begin(ctx, mdPath, domain.ManualKindMarkdown, opts)
	if err != nil {
		return nil, err
	}
	defer s.release(job.manual.Dir)

	logger.Section("Ingest " + job.manual.Name)
	s.report(domain.PhaseIdle, 0)
	s.report(domain.PhaseEmbedding, 0)

	err = s.stage(stageBuild, func() error {
		n, err := s.build(ctx, domain.ManualKindMarkdown, mdPath, job)
		job.manual.ChunkCount = n
		return err
	})
	if err == nil {
		s.report(domain.PhaseEmbedding, 100)
	}
	return s.finish(ctx, job, opts, err)
}

// ingestJob carries the state of one ingest.
type ingestJob struct {
	source string
	manual *domain.Manual
	run    domain.IngestRun
}

func (j *ingestJob) path(name string) string {
	return filepath.Join(j.manual.Dir, name)
}

// begin validates the source, claims the manual directory and records the run.
func (s *IngestService) begin(
	ctx context.Context, source string, kind domain.ManualKind, opts domain.IngestOptions,
) (*ingestJob, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("source %s: %w", source, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source %s is a directory: %w", source, domain.ErrInvalidInput)
	}

	name := opts.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	name = domain.SanitizeManualName(name)
	dir := s.ManualDir(name)

	if err := s.claim(dir); err != nil {
		return nil, err
	}

	job, err := s.register(ctx, source, kind, name, dir)
	if err != nil {
		s.release(dir)
		return nil, err
	}
	return job, nil
}

func (s *IngestService) register(
	ctx context.Context, source string, kind domain.ManualKind, name, dir string,
) (*ingestJob, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create manual directory: %w", err)
	}

	now := s.now()
	manual, err := s.manuals.GetByName(ctx, name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		manual = &domain.Manual{ID: uuid.NewString(), Name: name, CreatedAt: now}
	case err != nil:
		return nil, fmt.Errorf("get manual: %w", err)
	}
	manual.SourcePath = source
	manual.Dir = dir
	manual.Kind = kind
	manual.Status = domain.ManualStatusIngesting
	manual.Error = ""
	manual.UpdatedAt = now
	if err := s.manuals.Save(ctx, *manual); err != nil {
		return nil, fmt.Errorf("save manual: %w", err)
	}

	run := domain.IngestRun{
		ID:        uuid.NewString(),
		ManualID:  manual.ID,
		StartedAt: now,
		Phase:     domain.PhaseIdle,
	}
	if err := s.manuals.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save ingest run: %w", err)
	}
	return &ingestJob{source: source, manual: manual, run: run}, nil
}

func (s *IngestService) runPDF(ctx context.Context, job *ingestJob) error {
	pagesDir := job.path(domain.PagesDir)
	iconsDir := job.path(domain.IconsDir)

	var pages []domain.PageImage
	err := s.stage(stageRender, func() error {
		count, err := s.extractor.PageCount(ctx, job.source)
		if err != nil {
			return err
		}
		pages, err = s.renderer.Render(ctx, job.source, pagesDir, s.settings.Pipeline.DPI)
		job.manual.PageCount = len(pages)
		if err != nil {
			return err
		}
		if len(pages) != count {
			return fmt.Errorf("rendered %d of %d pages: %w", len(pages), count, domain.ErrPDFUnreadable)
		}
		return nil
	})
	if err != nil {
		return err
	}

	var crops []domain.IconCrop
	err = s.stage(stageDetect, func() error {
		if err := detector.ClearCrops(iconsDir); err != nil {
			return err
		}
		var err error
		crops, err = detector.New(s.detectorCfg).DetectAll(ctx, pages, iconsDir)
		if err != nil {
			return err
		}
		s.addIcons("detected", len(crops))
		return artifact.WriteJSON(job.path(domain.IconsRawMetaFile), crops)
	})
	if err != nil {
		return err
	}

	var clusters []domain.IconCluster
	err = s.stage(stageDedupe, func() error {
		files := make([]string, 0, len(crops))
		for _, c := range crops {
			files = append(files, c.File)
		}
		var err error
		clusters, err = dedupe.Cluster(ctx, files, s.settings.Pipeline.HashThreshold)
		if err != nil {
			return err
		}
		s.addIcons("clusters", len(clusters))
		return artifact.WriteJSON(job.path(domain.IconsClustersFile), clusters)
	})
	if err != nil {
		return err
	}

	var classified []domain.IconClassification
	err = s.stage(stageClassify, func() error {
		var err error
		classified, err = s.classify(ctx, clusters)
		if err != nil {
			return err
		}
		job.manual.IconCount = len(classified)
		return artifact.WriteJSON(job.path(domain.IconsClassifiedFile), classified)
	})
	if err != nil {
		return err
	}

	s.report(domain.PhaseIcons, 100)
	s.report(domain.PhaseEmbedding, 0)

	var tokens []domain.IconToken
	err = s.stage(stageTokens, func() error {
		tokens = tokenizer.Tokenize(classified)
		return artifact.WriteJSON(job.path(domain.IconTokensFile), tokens)
	})
	if err != nil {
		return err
	}

	enriched := job.path(domain.EnrichedTextFile)
	err = s.stage(stageMerge, func() error {
		text, err := merger.New(s.extractor).Merge(ctx, job.source, tokens)
		if err != nil {
			return err
		}
		return artifact.WriteFile(enriched, []byte(text))
	})
	if err != nil {
		return err
	}

	err = s.stage(stageBuild, func() error {
		n, err := s.build(ctx, domain.ManualKindPDF, enriched, job)
		job.manual.ChunkCount = n
		return err
	})
	if err != nil {
		return err
	}

	s.report(domain.PhaseEmbedding, 100)
	return nil
}

// classify labels the clusters, or skips classification without a vision service.
func (s *IngestService) classify(ctx context.Context, clusters []domain.IconCluster) ([]domain.IconClassification, error) {
	if s.vision == nil {
		if len(clusters) > 0 {
			logger.Warn("Skipping %d icon clusters: %v", len(clusters), domain.ErrVisionUnavailable)
		}
		return []domain.IconClassification{}, nil
	}

	opts := []classifier.Option{
		classifier.WithBatchSize(s.settings.Pipeline.ClassifyBatch),
		classifier.WithCooldown(s.settings.Pipeline.Cooldown),
		classifier.WithSleeper(s.sleep),
	}
	if s.metrics != nil {
		opts = append(opts, classifier.WithMetrics(s.metrics))
	}
	c := classifier.New(s.vision, opts...)
	if s.promptStore != nil {
		c.SetPromptStore(s.promptStore)
	}
	return c.Classify(ctx, clusters)
}

// build splits the input with the splitter for kind, embeds the chunks and
// writes the knowledge base.
func (s *IngestService) build(ctx context.Context, kind domain.ManualKind, input string, job *ingestJob) (int, error) {
	splitter, err := s.splitters.BuildForKind(kind, postprocessors.ConfigFromSettings(s.settings))
	if err != nil {
		return 0, err
	}

	opts := []knowledge.Option{knowledge.WithBatchSize(s.settings.Pipeline.EmbedBatch)}
	if s.metrics != nil {
		opts = append(opts, knowledge.WithMetrics(s.metrics))
	}
	builder := knowledge.NewBuilder(s.embedder, opts...)
	return builder.BuildFile(ctx, splitter, input, job.manual.KnowledgePath(), job.source)
}

// finish records the outcome and, on success, activates the manual.
func (s *IngestService) finish(
	ctx context.Context, job *ingestJob, opts domain.IngestOptions, runErr error,
) (*domain.Manual, error) {
	now := s.now()
	job.run.FinishedAt = now
	job.manual.UpdatedAt = now

	// Outcome bookkeeping uses a fresh context so a cancelled ingest is still recorded.
	saveCtx := context.WithoutCancel(ctx)

	if runErr != nil {
		s.report(domain.PhaseError, 0)
		job.run.Phase = domain.PhaseError
		job.run.Error = runErr.Error()
		job.manual.Status = domain.ManualStatusFailed
		job.manual.Error = runErr.Error()
		s.saveOutcome(saveCtx, job)
		return nil, runErr
	}

	job.run.Phase = domain.PhaseEmbedding
	job.manual.Status = domain.ManualStatusReady
	s.saveOutcome(saveCtx, job)
	logger.Info("Ingested %s: %d pages, %d icons, %d chunks",
		job.manual.Name, job.manual.PageCount, job.manual.IconCount, job.manual.ChunkCount)

	if !opts.SkipActivate && s.qa != nil {
		if err := s.qa.Load(ctx, *job.manual); err != nil {
			return job.manual, fmt.Errorf("activate manual: %w", err)
		}
		if err := s.manuals.SetActive(saveCtx, job.manual.ID); err != nil {
			return job.manual, fmt.Errorf("set active manual: %w", err)
		}
	}
	return job.manual, nil
}

func (s *IngestService) saveOutcome(ctx context.Context, job *ingestJob) {
	if err := s.manuals.Save(ctx, *job.manual); err != nil {
		logger.Warn("Failed to save manual %s: %v", job.manual.Name, err)
	}
	if err := s.manuals.SaveRun(ctx, job.run); err != nil {
		logger.Warn("Failed to save ingest run %s: %v", job.run.ID, err)
	}
}

// stage runs fn, timing it and wrapping its error with the stage name.
func (s *IngestService) stage(name string, fn func() error) error {
	start := time.Now()
	logger.Debug("Stage %s", name)
	err := fn()
	if s.metrics != nil {
		s.metrics.ObserveStage(name, time.Since(start), err)
	}
	if err != nil {
		logger.Error("Stage %s failed: %v", name, err)
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (s *IngestService) report(phase domain.Phase, progress int) {
	if err := s.progress.Report(phase, progress); err != nil {
		logger.Warn("Failed to report progress: %v", err)
	}
}

func (s *IngestService) addIcons(stage string, n int) {
	if s.metrics != nil {
		s.metrics.AddIcons(stage, n)
	}
}

func (s *IngestService) claim(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.busy[dir]; ok {
		return fmt.Errorf("%s: %w", filepath.Base(dir), domain.ErrIngestInProgress)
	}
	s.busy[dir] = struct{}{}
	return nil
}

func (s *IngestService) release(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, dir)
}
