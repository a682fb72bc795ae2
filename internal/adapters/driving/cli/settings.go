package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change configuration",
	Long: `Show or change the LLM, the embedding provider and the document store.

Values are saved to ~/.ragbox/config.toml. Environment variables and a .env
file take precedence over saved values without being written back.`,
	RunE: runSettingsShow,
}

func init() {
	settingsCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective settings",
			RunE:  runSettingsShow,
		},
		&cobra.Command{
			Use:   "wizard",
			Short: "Walk through every setting",
			RunE:  runSettingsWizard,
		},
		&cobra.Command{
			Use:   "store [sqlite|qdrant|memory]",
			Short: "Choose the document store",
			Long: `Choose where chunks are stored.

  sqlite  local database under the data directory (default)
  qdrant  Qdrant server, needs an embedding provider
  memory  process memory, lost on exit`,
			Args: cobra.MaximumNArgs(1),
			RunE: runSettingsStore,
		},
		&cobra.Command{
			Use:   "embedding",
			Short: "Choose the embedding provider",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withPrompt(cmd, configureEmbedding)
			},
		},
		&cobra.Command{
			Use:   "llm",
			Short: "Choose the LLM that writes answers",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withPrompt(cmd, configureLLM)
			},
		},
	)
	rootCmd.AddCommand(settingsCmd)
}

func requireSettings() error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}

// withPrompt runs step with a line reader over the command's stdin.
func withPrompt(cmd *cobra.Command, step func(*cobra.Command, *bufio.Reader) error) error {
	if err := requireSettings(); err != nil {
		return err
	}
	return step(cmd, bufio.NewReader(cmd.InOrStdin()))
}

// settingsView is the printable form of the settings. Secrets are masked.
type settingsView struct {
	LLM       providerView `json:"llm"`
	Embedding providerView `json:"embedding"`
	Store     struct {
		Backend   string `json:"backend"`
		DataDir   string `json:"data_dir,omitempty"`
		QdrantURL string `json:"qdrant_url,omitempty"`
	} `json:"store"`
	Server struct {
		Address string `json:"address"`
	} `json:"server"`
	Query struct {
		TopK              int    `json:"top_k"`
		GenerationTimeout string `json:"generation_timeout"`
	} `json:"query"`
	Problem string `json:"problem,omitempty"`
}

type providerView struct {
	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
	BaseURL    string `json:"base_url,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
	Configured bool   `json:"configured"`
}

func newProviderView(provider domain.AIProvider, model, baseURL, apiKey string, configured bool) providerView {
	v := providerView{Configured: configured}
	if provider == "" {
		return v
	}
	v.Provider = string(provider)
	v.Model = model
	if provider.IsLocal() {
		v.BaseURL = baseURL
	}
	if provider.RequiresAPIKey() {
		v.APIKey = "(not set)"
		if apiKey != "" {
			v.APIKey = maskAPIKey(apiKey)
		}
	}
	return v
}

func newSettingsView(s *domain.AppSettings) settingsView {
	var v settingsView
	v.LLM = newProviderView(s.LLM.Provider, s.LLM.Model, s.LLM.BaseURL, s.LLM.APIKey, s.LLM.IsConfigured())
	v.Embedding = newProviderView(s.Embedding.Provider, s.Embedding.Model, s.Embedding.BaseURL,
		s.Embedding.APIKey, s.Embedding.IsConfigured())
	v.Store.Backend = s.Store.Backend.String()
	v.Store.DataDir = s.Store.DataDir
	if s.Store.Backend == domain.StoreBackendQdrant {
		v.Store.QdrantURL = s.Store.QdrantURL
	}
	v.Server.Address = fmt.Sprintf("%s:%d", s.Server.Host, s.Server.Port)
	v.Query.TopK = s.Query.TopK
	v.Query.GenerationTimeout = s.Query.GenerationTimeout.String()
	return v
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	view := newSettingsView(settings)
	if err := settingsService.Validate(); err != nil {
		view.Problem = err.Error()
	}

	w := cmd.OutOrStdout()
	return render(w, view, func() { printSettings(w, view) })
}

func printSettings(w io.Writer, v settingsView) {
	field := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "  %s: %s\n", label, value)
		}
	}
	provider := func(section string, p providerView, unset string) {
		fmt.Fprintf(w, "[%s]\n", section)
		if p.Provider == "" {
			fmt.Fprintf(w, "  Provider: %s\n\n", unset)
			return
		}
		field("Provider", domain.AIProvider(p.Provider).Description())
		field("Model", p.Model)
		field("Base URL", p.BaseURL)
		field("API Key", p.APIKey)
		fmt.Fprintln(w)
	}

	provider("LLM", v.LLM, "none (answers unavailable)")
	provider("Embedding", v.Embedding, "none (passages ranked by keywords)")

	fmt.Fprintln(w, "[Store]")
	field("Backend", v.Store.Backend)
	field("Data dir", v.Store.DataDir)
	field("Qdrant URL", v.Store.QdrantURL)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[Server]")
	field("Address", v.Server.Address)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[Query]")
	field("Top K", strconv.Itoa(v.Query.TopK))
	field("Generation timeout", v.Query.GenerationTimeout)
	fmt.Fprintln(w)

	if v.Problem != "" {
		fmt.Fprintf(w, "Warning: %s\n", v.Problem)
		fmt.Fprintln(w, "Run 'ragbox settings wizard' to fix it.")
		return
	}
	fmt.Fprintln(w, "Configuration is valid.")
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	return withPrompt(cmd, func(cmd *cobra.Command, in *bufio.Reader) error {
		cmd.Println("ragbox setup")
		cmd.Println()

		cmd.Println("1/3 Language model")
		if err := configureLLM(cmd, in); err != nil {
			return err
		}

		cmd.Println("2/3 Embeddings")
		cmd.Print("Rank passages by meaning with an embedding provider? [y/N]: ")
		switch strings.ToLower(readLine(in)) {
		case "y", "yes":
			if err := configureEmbedding(cmd, in); err != nil {
				return err
			}
		default:
			cmd.Println("Skipped. Passages will be ranked by keywords.")
			cmd.Println()
		}

		cmd.Println("3/3 Document store")
		if err := chooseStore(cmd, in); err != nil {
			return err
		}

		if err := settingsService.Validate(); err != nil {
			cmd.Printf("Warning: %v\n", err)
			return nil
		}
		cmd.Println("All settings are valid and saved.")
		return nil
	})
}

func runSettingsStore(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return withPrompt(cmd, chooseStore)
	}
	if err := requireSettings(); err != nil {
		return err
	}
	return setStore(cmd, domain.StoreBackend(args[0]))
}

var storeBackends = []domain.StoreBackend{
	domain.StoreBackendSQLite,
	domain.StoreBackendQdrant,
	domain.StoreBackendMemory,
}

func chooseStore(cmd *cobra.Command, in *bufio.Reader) error {
	for i, b := range storeBackends {
		cmd.Printf("  %d. %s\n", i+1, b)
	}
	cmd.Print("\nEnter choice [1]: ")
	return setStore(cmd, storeBackends[parseChoice(readLine(in), len(storeBackends), 1)-1])
}

func setStore(cmd *cobra.Command, backend domain.StoreBackend) error {
	if err := settingsService.SetStoreBackend(backend); err != nil {
		return fmt.Errorf("set store backend: %w", err)
	}
	cmd.Printf("Store backend set to: %s\n\n", backend)

	if backend != domain.StoreBackendQdrant {
		return nil
	}
	if settings, err := settingsService.Get(); err == nil && !settings.Embedding.IsConfigured() {
		cmd.Println("Note: qdrant requires an embedding provider.")
		cmd.Println("Run 'ragbox settings embedding' to configure one.")
	}
	return nil
}

// providerChoice describes one of the two provider prompts.
type providerChoice struct {
	label     string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	set       func(domain.AIProvider, string, string) error
	check     func() error
}

func configureLLM(cmd *cobra.Command, in *bufio.Reader) error {
	return llmChoice().configure(cmd, in)
}

func configureEmbedding(cmd *cobra.Command, in *bufio.Reader) error {
	return embeddingChoice().configure(cmd, in)
}

func llmChoice() providerChoice {
	return providerChoice{
		label:     "LLM",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		set:       settingsService.SetLLMProvider,
		check:     settingsService.ValidateLLMConfig,
	}
}

func embeddingChoice() providerChoice {
	return providerChoice{
		label:     "Embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		set:       settingsService.SetEmbeddingProvider,
		check:     settingsService.ValidateEmbeddingConfig,
	}
}

// configure asks for provider, model and key, saves them and pings the
// provider.
func (c providerChoice) configure(cmd *cobra.Command, in *bufio.Reader) error {
	cmd.Printf("Select %s provider\n", c.label)
	for i, p := range c.providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := c.providers[parseChoice(readLine(in), len(c.providers), 1)-1]

	model := c.models[provider]
	cmd.Printf("Enter model name [%s]: ", model)
	if answer := readLine(in); answer != "" {
		model = answer
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readSecret(cmd, in)
		cmd.Println()
		if apiKey == "" {
			return fmt.Errorf("%s requires an API key", provider)
		}
	}

	if err := c.set(provider, model, apiKey); err != nil {
		return fmt.Errorf("save %s provider: %w", strings.ToLower(c.label), err)
	}

	cmd.Print("Validating configuration... ")
	if err := c.check(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s provider check: %w", strings.ToLower(c.label), err)
	}
	cmd.Println("OK")
	cmd.Printf("%s provider configured: %s (%s)\n\n", c.label, provider.Description(), model)
	return nil
}

func readLine(in *bufio.Reader) string {
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

// readSecret reads without echo when stdin is a terminal.
func readSecret(cmd *cobra.Command, in *bufio.Reader) string {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if secret, err := term.ReadPassword(int(f.Fd())); err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	return readLine(in)
}

// parseChoice returns the 1-based menu choice in input, or def when input
// is not a number between 1 and n.
func parseChoice(input string, n, def int) int {
	choice, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || choice < 1 || choice > n {
		return def
	}
	return choice
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
