package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var (
	settingsProvider string
	settingsModel    string
	settingsAPIKey   string
	settingsBaseURL  string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the AI providers and pipeline tunables.

Settings live in config.toml in the manualqa home directory. API keys may
also come from GOOGLE_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY (or a
.env file); a key in config.toml takes precedence.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <vision|embedding|llm> --provider <name> | set <key> <value>",
	Short: "Change a provider or a tunable",
	Long: `Configure a provider:
  manualqa settings set vision --provider gemini [--model gemini-2.0-flash]
  manualqa settings set embedding --provider ollama --model all-minilm
  manualqa settings set llm --provider openai --api-key sk-...

Or change a tunable:
  manualqa settings set pipeline.chunk_size 800

Tunables: ` + strings.Join(tunableKeys(), ", "),
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that each configured provider responds",
	Args:  cobra.NoArgs,
	RunE:  runSettingsTest,
}

func init() {
	f := settingsSetCmd.Flags()
	f.StringVar(&settingsProvider, "provider", "", "provider name (gemini, openai, ollama, anthropic)")
	f.StringVar(&settingsModel, "model", "", "model name (defaults to the provider's default)")
	f.StringVar(&settingsAPIKey, "api-key", "", "API key (prompted for when required and not in the environment)")
	f.StringVar(&settingsBaseURL, "base-url", "", "API endpoint override")
	settingsSetCmd.SetFlagErrorFunc(settingsSetFlagError)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsTestCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	printProvider(cmd, "Vision", settings.Vision.ProviderSettings)
	cmd.Printf("  Requests/minute: %d\n\n", settings.Vision.RequestsPerMinute)
	printProvider(cmd, "Embedding", settings.Embedding.ProviderSettings)
	cmd.Println()
	printProvider(cmd, "LLM", settings.LLM.ProviderSettings)
	cmd.Println()

	p := settings.Pipeline
	cmd.Println("[Pipeline]")
	cmd.Printf("  DPI: %d\n", p.DPI)
	cmd.Printf("  Hash threshold: %d\n", p.HashThreshold)
	cmd.Printf("  Classify batch: %d (cooldown %s)\n", p.ClassifyBatch, p.Cooldown)
	cmd.Printf("  Chunk size: %d (overlap %d)\n", p.ChunkSize, p.ChunkOverlap)
	cmd.Printf("  Embed batch: %d\n", p.EmbedBatch)
	cmd.Printf("  Markdown window: %d words (overlap %d)\n", settings.Markdown.ChunkWords, settings.Markdown.OverlapWords)
	cmd.Printf("  Answer top-k: %d\n\n", settings.Answer.TopK)

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'manualqa settings set' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func printProvider(cmd *cobra.Command, title string, p domain.ProviderSettings) {
	cmd.Printf("[%s]\n", title)
	cmd.Printf("  Provider: %s\n", p.Provider.Description())
	cmd.Printf("  Model: %s\n", p.Model)
	if p.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", p.BaseURL)
	}
	if p.Provider.RequiresAPIKey() {
		key := "(not set, export " + p.Provider.APIKeyEnv() + ")"
		if p.APIKey != "" {
			key = maskAPIKey(p.APIKey)
		}
		cmd.Printf("  API Key: %s\n", key)
	}
	status := "configured"
	if !p.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	if len(args) == 2 {
		return setTunable(cmd, args[0], args[1])
	}

	section := args[0]
	if settingsProvider == "" {
		return fmt.Errorf("--provider is required for %s", section)
	}
	provider := domain.AIProvider(strings.ToLower(settingsProvider))
	if !provider.IsValid() {
		return fmt.Errorf("unknown provider %q", settingsProvider)
	}

	apiKey := settingsAPIKey
	if apiKey == "" && provider.RequiresAPIKey() && os.Getenv(provider.APIKeyEnv()) == "" && isTerminal() {
		cmd.Printf("Enter %s API key: ", provider)
		apiKey = readPassword()
		cmd.Println()
	}

	var err error
	switch section {
	case "vision":
		err = settingsService.SetVisionProvider(provider, settingsModel, apiKey)
	case "embedding":
		err = settingsService.SetEmbeddingProvider(provider, settingsModel, apiKey)
	case "llm":
		err = settingsService.SetLLMProvider(provider, settingsModel, apiKey)
	default:
		return fmt.Errorf("unknown section %q (want vision, embedding or llm)", section)
	}
	if err != nil {
		return fmt.Errorf("failed to configure %s: %w", section, err)
	}

	if settingsBaseURL != "" {
		if err := setBaseURL(section, settingsBaseURL); err != nil {
			return err
		}
	}

	cmd.Printf("%s provider set to %s.\n", section, provider.Description())
	cmd.Println("Run 'manualqa settings test' to check it responds.")
	return nil
}

func setBaseURL(section, url string) error {
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	switch section {
	case "vision":
		settings.Vision.BaseURL = url
	case "embedding":
		settings.Embedding.BaseURL = url
	case "llm":
		settings.LLM.BaseURL = url
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// tunables maps config keys to the integer fields they control.
var tunables = map[string]func(*domain.AppSettings) *int{
	"vision.rpm":              func(s *domain.AppSettings) *int { return &s.Vision.RequestsPerMinute },
	"pipeline.dpi":            func(s *domain.AppSettings) *int { return &s.Pipeline.DPI },
	"pipeline.hash_threshold": func(s *domain.AppSettings) *int { return &s.Pipeline.HashThreshold },
	"pipeline.classify_batch": func(s *domain.AppSettings) *int { return &s.Pipeline.ClassifyBatch },
	"pipeline.chunk_size":     func(s *domain.AppSettings) *int { return &s.Pipeline.ChunkSize },
	"pipeline.chunk_overlap":  func(s *domain.AppSettings) *int { return &s.Pipeline.ChunkOverlap },
	"pipeline.embed_batch":    func(s *domain.AppSettings) *int { return &s.Pipeline.EmbedBatch },
	"markdown.chunk_words":    func(s *domain.AppSettings) *int { return &s.Markdown.ChunkWords },
	"markdown.overlap_words":  func(s *domain.AppSettings) *int { return &s.Markdown.OverlapWords },
	"answer.top_k":            func(s *domain.AppSettings) *int { return &s.Answer.TopK },
}

const cooldownKey = "pipeline.cooldown_seconds"

// negativeValue matches the flag parser's error for a value such as -1,
// which it reads as a shorthand flag.
var negativeValue = regexp.MustCompile(`^unknown shorthand flag: '\d' in (-\d+)$`)

// settingsSetFlagError reports a negative tunable value as a bad value
// rather than an unknown flag.
func settingsSetFlagError(_ *cobra.Command, err error) error {
	if m := negativeValue.FindStringSubmatch(err.Error()); m != nil {
		return fmt.Errorf("value must be a non-negative integer, got %q", m[1])
	}
	return err
}

func tunableKeys() []string {
	keys := []string{cooldownKey}
	for k := range tunables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func setTunable(cmd *cobra.Command, key, raw string) error {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fmt.Errorf("%s must be a non-negative integer, got %q", key, raw)
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if key == cooldownKey {
		settings.Pipeline.Cooldown = time.Duration(n) * time.Second
	} else {
		field, ok := tunables[key]
		if !ok {
			return fmt.Errorf("unknown setting %q", key)
		}
		*field(settings) = n
	}
	if settings.Pipeline.ChunkOverlap >= settings.Pipeline.ChunkSize {
		return errors.New("pipeline.chunk_overlap must be smaller than pipeline.chunk_size")
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("%s = %d\n", key, n)
	return nil
}

func runSettingsTest(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	checks := []struct {
		name string
		fn   func() error
	}{
		{"Vision", settingsService.ValidateVisionConfig},
		{"Embedding", settingsService.ValidateEmbeddingConfig},
		{"LLM", settingsService.ValidateLLMConfig},
	}

	failed := 0
	for _, c := range checks {
		cmd.Printf("%-10s ", c.name+":")
		if err := c.fn(); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			failed++
			continue
		}
		cmd.Println("OK")
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d providers failed", failed, len(checks))
	}
	return nil
}

// Helper functions.

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if isTerminal() {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
