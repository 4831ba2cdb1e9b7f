package cli

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func ovenManual() domain.Manual {
	return domain.Manual{
		ID:         "m-1",
		Name:       "oven",
		Kind:       domain.ManualKindPDF,
		Status:     domain.ManualStatusReady,
		Dir:        "/tmp/manuals/oven",
		PageCount:  12,
		IconCount:  7,
		ChunkCount: 40,
		UpdatedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestCommands_NotConfigured(t *testing.T) {
	useServices(t, nil)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"ingest", "a.pdf"}, "ingest service not configured"},
		{[]string{"ask", "hi"}, "question answering service not configured"},
		{[]string{"search", "hi"}, "search service not configured"},
		{[]string{"status"}, "ingest service not configured"},
		{[]string{"manual", "list"}, "manual service not configured"},
		{[]string{"settings", "show"}, "settings service not configured"},
		{[]string{"watch", t.TempDir()}, "ingest service not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			_, err := runCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIngestCmd(t *testing.T) {
	var gotPath string
	var gotOpts domain.IngestOptions
	ingest := &MockIngestService{IngestFunc: func(_ context.Context, path string, opts domain.IngestOptions) (*domain.Manual, error) {
		gotPath, gotOpts = path, opts
		m := ovenManual()
		return &m, nil
	}}
	useServices(t, &Services{Ingest: ingest})

	out, err := runCommand(t, "ingest", "--name", "oven", "oven.pdf")

	require.NoError(t, err)
	assert.Equal(t, "oven.pdf", gotPath)
	assert.Equal(t, domain.IngestOptions{Name: "oven"}, gotOpts)
	assert.Contains(t, out, "Manual:  oven (pdf)")
	assert.Contains(t, out, "Icons:   7")
	assert.Contains(t, out, "Chunks:  40")
	assert.Contains(t, out, "Active manual: oven")
}

func TestIngestCmd_NoActivate(t *testing.T) {
	var gotOpts domain.IngestOptions
	ingest := &MockIngestService{IngestFunc: func(_ context.Context, _ string, opts domain.IngestOptions) (*domain.Manual, error) {
		gotOpts = opts
		return &domain.Manual{Name: "notes", Kind: domain.ManualKindMarkdown, ChunkCount: 3}, nil
	}}
	useServices(t, &Services{Ingest: ingest})

	out, err := runCommand(t, "ingest", "--no-activate", "notes.md")

	require.NoError(t, err)
	assert.True(t, gotOpts.SkipActivate)
	assert.NotContains(t, out, "Pages:")
	assert.NotContains(t, out, "Active manual")
}

func TestIngestCmd_Failure(t *testing.T) {
	ingest := &MockIngestService{IngestFunc: func(context.Context, string, domain.IngestOptions) (*domain.Manual, error) {
		return nil, errors.New("render page 3: exit status 1")
	}}
	useServices(t, &Services{Ingest: ingest})

	_, err := runCommand(t, "ingest", "broken.pdf")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest failed: render page 3")
}

func TestIngestCmd_IngestedButNotActivated(t *testing.T) {
	ingest := &MockIngestService{IngestFunc: func(context.Context, string, domain.IngestOptions) (*domain.Manual, error) {
		m := ovenManual()
		return &m, errors.New("load index: corrupt")
	}}
	useServices(t, &Services{Ingest: ingest})

	out, err := runCommand(t, "ingest", "oven.pdf")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "manual ingested but not activated")
	assert.Contains(t, out, "Manual:  oven (pdf)")
	assert.NotContains(t, out, "Active manual")
}

func TestAskCmd(t *testing.T) {
	var gotQuestion string
	qa := &MockQAService{AskFunc: func(_ context.Context, q string) (*domain.Answer, error) {
		gotQuestion = q
		return &domain.Answer{
			Intent: domain.IntentExplanation,
			Answer: "The snowflake means frost protection.",
			Chunks: []domain.SearchHit{{ID: "chunk_0003", Score: 0.91, Text: "Frost  protection\n<icon:frost> keeps\tthe pipes safe"}},
		}, nil
	}}
	manuals := &MockManualService{}
	useServices(t, &Services{QA: qa, Manuals: manuals})

	t.Run("plain", func(t *testing.T) {
		out, err := runCommand(t, "ask", "what", "is", "the", "snowflake?")

		require.NoError(t, err)
		assert.Equal(t, "what is the snowflake?", gotQuestion)
		assert.Contains(t, out, "The snowflake means frost protection.")
		assert.Contains(t, out, "(intent: explanation)")
		assert.NotContains(t, out, "Sources:")
	})

	t.Run("with chunks", func(t *testing.T) {
		out, err := runCommand(t, "ask", "-k", "snowflake")

		require.NoError(t, err)
		assert.Contains(t, out, "Sources:")
		assert.Contains(t, out, "[1] chunk_0003 (0.910)")
		assert.Contains(t, out, "Frost protection <icon:frost> keeps the pipes safe")
	})

	t.Run("json", func(t *testing.T) {
		out, err := runCommand(t, "ask", "--json", "snowflake")

		require.NoError(t, err)
		var got domain.Answer
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, domain.IntentExplanation, got.Intent)
		assert.Len(t, got.Chunks, 1)
	})

	assert.Equal(t, 3, manuals.LoadCalls)
}

func TestAskCmd_FriendlyErrors(t *testing.T) {
	qa := &MockQAService{AskFunc: func(context.Context, string) (*domain.Answer, error) {
		return nil, domain.ErrLLMUnavailable
	}}
	useServices(t, &Services{QA: qa})

	_, err := runCommand(t, "ask", "hello")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "settings set llm")
}

func TestSearchCmd(t *testing.T) {
	var gotTopK int
	qa := &MockQAService{SearchFunc: func(_ context.Context, _ string, topK int) ([]domain.SearchHit, error) {
		gotTopK = topK
		return []domain.SearchHit{
			{ID: "chunk_0001", Score: 0.8, Text: "Descale every month."},
			{ID: "chunk_0009", Score: 0.5, Text: "Use citric acid."},
		}, nil
	}}
	useServices(t, &Services{QA: qa})

	t.Run("default limit", func(t *testing.T) {
		out, err := runCommand(t, "search", "descale")

		require.NoError(t, err)
		assert.Equal(t, 5, gotTopK)
		assert.Contains(t, out, "[1] chunk_0001 (0.800)")
		assert.Contains(t, out, "[2] chunk_0009 (0.500)")
	})

	t.Run("limit flag", func(t *testing.T) {
		_, err := runCommand(t, "search", "-n", "2", "descale")

		require.NoError(t, err)
		assert.Equal(t, 2, gotTopK)
	})

	t.Run("json", func(t *testing.T) {
		out, err := runCommand(t, "search", "--json", "descale")

		require.NoError(t, err)
		var hits []domain.SearchHit
		require.NoError(t, json.Unmarshal([]byte(out), &hits))
		assert.Len(t, hits, 2)
	})
}

func TestSearchCmd_NoResults(t *testing.T) {
	useServices(t, &Services{QA: &MockQAService{}})

	out, err := runCommand(t, "search", "nothing")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_NoActiveManual(t *testing.T) {
	qa := &MockQAService{SearchFunc: func(context.Context, string, int) ([]domain.SearchHit, error) {
		return nil, domain.ErrNoActiveManual
	}}
	useServices(t, &Services{QA: qa})

	_, err := runCommand(t, "search", "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "manualqa ingest <file>")
}

func TestStatusCmd(t *testing.T) {
	ingest := &MockIngestService{Progress: domain.Progress{Phase: domain.PhaseIcons, Progress: 40}}
	manuals := &MockManualService{Manuals: []domain.Manual{ovenManual()}, Active: "m-1"}
	useServices(t, &Services{Ingest: ingest, Manuals: manuals})

	out, err := runCommand(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Ingest:  icons 40%")
	assert.Contains(t, out, "Active:  oven (ready, 40 chunks)")
}

func TestStatusCmd_JSON(t *testing.T) {
	ingest := &MockIngestService{Progress: domain.Progress{Phase: domain.PhaseEmbedding, Progress: 100}}
	useServices(t, &Services{Ingest: ingest})

	out, err := runCommand(t, "status", "--json")

	require.NoError(t, err)
	assert.JSONEq(t, `{"phase":"embedding","progress":100}`, out)
}

func TestStatusCmd_NoActive(t *testing.T) {
	useServices(t, &Services{Ingest: &MockIngestService{Progress: domain.IdleProgress()}, Manuals: &MockManualService{}})

	out, err := runCommand(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Ingest:  idle")
	assert.Contains(t, out, "Active:  (none)")
}

func TestDescribeProgress(t *testing.T) {
	tests := []struct {
		p    domain.Progress
		want string
	}{
		{domain.IdleProgress(), "idle"},
		{domain.Progress{Phase: domain.PhaseError}, "failed"},
		{domain.Progress{Phase: domain.PhaseEmbedding, Progress: 100}, "complete"},
		{domain.Progress{Phase: domain.PhaseEmbedding, Progress: 25}, "embedding 25%"},
		{domain.Progress{Phase: domain.PhaseIcons, Progress: 100}, "icons 100%"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, describeProgress(tt.p))
	}
}

func TestManualListCmd(t *testing.T) {
	notes := domain.Manual{ID: "m-2", Name: "notes", Kind: domain.ManualKindMarkdown, Status: domain.ManualStatusFailed}
	manuals := &MockManualService{Manuals: []domain.Manual{ovenManual(), notes}, Active: "m-1"}
	useServices(t, &Services{Manuals: manuals})

	out, err := runCommand(t, "manual", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Regexp(t, `\*\s+oven\s+pdf\s+ready\s+12\s+7\s+40`, out)
	assert.Regexp(t, `\n\s+notes\s+markdown\s+failed`, out)
}

func TestManualListCmd_Empty(t *testing.T) {
	useServices(t, &Services{Manuals: &MockManualService{}})

	out, err := runCommand(t, "manuals", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No manuals ingested yet.")
}

func TestManualUseCmd(t *testing.T) {
	manuals := &MockManualService{Manuals: []domain.Manual{ovenManual()}}
	useServices(t, &Services{Manuals: manuals})

	out, err := runCommand(t, "manual", "use", "oven")

	require.NoError(t, err)
	assert.Equal(t, "m-1", manuals.Active)
	assert.Contains(t, out, "Active manual: oven (40 chunks)")

	_, err = runCommand(t, "manual", "use", "fridge")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManualRemoveCmd(t *testing.T) {
	manuals := &MockManualService{Manuals: []domain.Manual{ovenManual()}}
	useServices(t, &Services{Manuals: manuals})

	out, err := runCommand(t, "manual", "remove", "oven")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed oven.")
	assert.False(t, manuals.Purged)

	out, err = runCommand(t, "manual", "remove", "--purge", "oven")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed oven and its files.")
	assert.True(t, manuals.Purged)
	assert.Equal(t, []string{"oven", "oven"}, manuals.Removed)
}

func TestManualRunsCmd(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	manuals := &MockManualService{
		Manuals: []domain.Manual{ovenManual()},
		RunsByRef: map[string][]domain.IngestRun{"oven": {
			{ID: "r-1", StartedAt: start, FinishedAt: start.Add(90 * time.Second)},
			{ID: "r-2", StartedAt: start, FinishedAt: start.Add(time.Second), Error: "vision quota"},
			{ID: "r-3", StartedAt: start},
		}},
	}
	useServices(t, &Services{Manuals: manuals})

	out, err := runCommand(t, "manual", "runs", "oven")

	require.NoError(t, err)
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "failed: vision quota")
	assert.Contains(t, out, "running")
}

func TestManualRunsCmd_None(t *testing.T) {
	useServices(t, &Services{Manuals: &MockManualService{Manuals: []domain.Manual{ovenManual()}}})

	out, err := runCommand(t, "manual", "runs", "m-1")

	require.NoError(t, err)
	assert.Contains(t, out, "No ingest runs recorded.")
}

func TestSettingsShowCmd(t *testing.T) {
	settings := newMockSettings()
	settings.Settings.LLM.APIKey = "sk-1234567890abcdef"
	useServices(t, &Services{Settings: settings})

	out, err := runCommand(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "[Vision]")
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "[Pipeline]")
	assert.Contains(t, out, "DPI: 200")
	assert.Contains(t, out, "Answer top-k: 5")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShowCmd_InvalidConfig(t *testing.T) {
	settings := newMockSettings()
	settings.ValidateErr = errors.New("vision provider needs an API key")
	useServices(t, &Services{Settings: settings})

	out, err := runCommand(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: vision provider needs an API key")
}

func TestSettingsSetCmd_Provider(t *testing.T) {
	settings := newMockSettings()
	useServices(t, &Services{Settings: settings})

	out, err := runCommand(t, "settings", "set", "embedding", "--provider", "Ollama", "--model", "all-minilm",
		"--base-url", "http://gpu-box:11434")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Settings.Embedding.Provider)
	assert.Equal(t, "all-minilm", settings.Settings.Embedding.Model)
	assert.Equal(t, "http://gpu-box:11434", settings.Settings.Embedding.BaseURL)
	assert.Contains(t, out, "embedding provider set to")
}

func TestSettingsSetCmd_APIKeyFlag(t *testing.T) {
	settings := newMockSettings()
	useServices(t, &Services{Settings: settings})

	_, err := runCommand(t, "settings", "set", "llm", "--provider", "openai", "--api-key", "sk-test")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Settings.LLM.Provider)
	assert.Equal(t, "sk-test", settings.Settings.LLM.APIKey)
	assert.Empty(t, settings.Settings.LLM.BaseURL)
}

func TestSettingsSetCmd_ProviderErrors(t *testing.T) {
	useServices(t, &Services{Settings: newMockSettings()})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing provider", []string{"settings", "set", "vision"}, "--provider is required for vision"},
		{"unknown provider", []string{"settings", "set", "vision", "--provider", "acme"}, `unknown provider "acme"`},
		{"unknown section", []string{"settings", "set", "audio", "--provider", "ollama"}, `unknown section "audio"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSettingsSetCmd_Tunable(t *testing.T) {
	settings := newMockSettings()
	useServices(t, &Services{Settings: settings})

	out, err := runCommand(t, "settings", "set", "pipeline.chunk_size", "800")
	require.NoError(t, err)
	assert.Contains(t, out, "pipeline.chunk_size = 800")
	assert.Equal(t, 800, settings.Settings.Pipeline.ChunkSize)

	_, err = runCommand(t, "settings", "set", "pipeline.cooldown_seconds", "0")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), settings.Settings.Pipeline.Cooldown)

	_, err = runCommand(t, "settings", "set", "answer.top_k", "8")
	require.NoError(t, err)
	assert.Equal(t, 8, settings.Settings.Answer.TopK)
}

func TestSettingsSetCmd_TunableErrors(t *testing.T) {
	settings := newMockSettings()
	useServices(t, &Services{Settings: settings})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown key", []string{"pipeline.colour", "3"}, `unknown setting "pipeline.colour"`},
		{"not a number", []string{"pipeline.dpi", "high"}, "must be a non-negative integer"},
		{"negative", []string{"pipeline.dpi", "-1"}, "must be a non-negative integer"},
		{"negative multi-digit", []string{"pipeline.chunk_size", "-800"}, `got "-800"`},
		{"negative after separator", []string{"pipeline.dpi", "--", "-1"}, "pipeline.dpi must be a non-negative integer"},
		{"overlap too large", []string{"pipeline.chunk_overlap", "1200"}, "must be smaller than pipeline.chunk_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCommand(t, append([]string{"settings", "set"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.Equal(t, 0, settings.Saved)
}

func TestSettingsSetFlagError(t *testing.T) {
	err := settingsSetFlagError(settingsSetCmd, errors.New("unknown shorthand flag: '1' in -15"))
	assert.EqualError(t, err, `value must be a non-negative integer, got "-15"`)

	other := errors.New("unknown shorthand flag: 'x' in -x")
	assert.Same(t, other, settingsSetFlagError(settingsSetCmd, other))
}

func TestTunableKeys(t *testing.T) {
	keys := tunableKeys()

	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, "pipeline.cooldown_seconds")
	assert.Len(t, keys, len(tunables)+1)
}

func TestSettingsTestCmd(t *testing.T) {
	settings := newMockSettings()
	useServices(t, &Services{Settings: settings})

	out, err := runCommand(t, "settings", "test")
	require.NoError(t, err)
	assert.Contains(t, out, "Vision:    OK")

	settings.CheckErrs["llm"] = errors.New("connection refused")
	settings.CheckErrs["vision"] = errors.New("401 unauthorized")
	out, err = runCommand(t, "settings", "test")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 providers failed")
	assert.Contains(t, out, "LLM:       FAILED: connection refused")
	assert.Contains(t, out, "Embedding: OK")
}

func TestWatchCmd_BadDirectory(t *testing.T) {
	useServices(t, &Services{Ingest: &MockIngestService{}})

	_, err := runCommand(t, "watch", filepath.Join(t.TempDir(), "missing"))

	require.Error(t, err)
}

func TestMCPServeCmd_MetricsRequiresPort(t *testing.T) {
	useServices(t, &Services{QA: &MockQAService{}})

	_, err := runCommand(t, "mcp", "serve", "--metrics")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--metrics requires --port")
}
