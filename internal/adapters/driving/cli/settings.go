package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure revision limits, AI providers and the vector index.

Use subcommands to configure specific settings or run the interactive wizard.
API keys are read from the environment (FOLIO_LLM_API_KEY,
FOLIO_EMBEDDING_API_KEY or the provider's own variable) and never stored.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsIterationsCmd = &cobra.Command{
	Use:   "iterations [n]",
	Short: "Set the maximum number of revision cycles",
	Long: `Set revision.max_iterations. A chapter that has not been accepted after
this many generate, critique and decide cycles is marked exhausted.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsIterations,
}

var settingsPolicyCmd = &cobra.Command{
	Use:   "edit-policy [regenerate|critique]",
	Short: "Choose what happens to human edits",
	Long: `Set revision.edit_policy.

  regenerate - edited text goes straight back to generation
  critique   - edited text is critiqued before the next generation`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsPolicy,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used to index and search versions.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider that writes and critiques chapters.`,
	RunE:  runSettingsLLM,
}

var settingsIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Choose the vector index backend",
	Long: `Select where embeddings are stored.

  sqlite   - next to the versions in the folio database (default)
  memory   - in process memory, lost on exit
  bolt     - a separate bbolt file
  postgres - PostgreSQL with the pgvector extension (asks for a DSN)`,
	RunE: runSettingsIndex,
}

func init() {
	for _, c := range []*cobra.Command{
		settingsCmd, settingsShowCmd, settingsWizardCmd, settingsIterationsCmd,
		settingsPolicyCmd, settingsEmbeddingCmd, settingsLLMCmd, settingsIndexCmd,
	} {
		requires(c, NeedSettings)
	}
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsIterationsCmd)
	settingsCmd.AddCommand(settingsPolicyCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsIndexCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Revision]")
	if settings.Revision.MaxIterations > 0 {
		cmd.Printf("  Max iterations: %d\n", settings.Revision.MaxIterations)
	} else {
		cmd.Println("  Max iterations: (not set)")
	}
	cmd.Printf("  Edit policy: %s\n", settings.Revision.EditPolicy)
	cmd.Printf("  Generation retries: %d (backoff %s)\n",
		settings.Revision.GenerationRetryLimit, settings.Revision.RetryBackoff)
	cmd.Printf("  Concurrent chapters: %d\n", settings.Revision.MaxConcurrentChapters)
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", describeKey(settings.LLM.APIKey))
	}
	cmd.Printf("  Status: %s\n", describeConfigured(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", describeKey(settings.Embedding.APIKey))
	}
	cmd.Printf("  Status: %s\n", describeConfigured(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Top K: %d\n", settings.Search.SimilarityTopK)
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Backend: %s\n", settings.Index.Backend)
	if settings.Index.Backend.NeedsDSN() {
		cmd.Printf("  DSN: %s\n", maskDSN(settings.Index.DSN))
	}
	cmd.Println()

	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'folio settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("Folio Settings Wizard")
	cmd.Println("=====================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Revision Limit")
	cmd.Println("----------------------")
	current := 3
	if s, err := settingsService.Get(); err == nil && s.Revision.MaxIterations > 0 {
		current = s.Revision.MaxIterations
	}
	cmd.Printf("Maximum revision cycles per chapter [%d]: ", current)
	n := parseChoice(readLine(reader), 1000, current)
	if err := settingsService.SetMaxIterations(n); err != nil {
		return fmt.Errorf("failed to set max iterations: %w", err)
	}
	cmd.Printf("Set max iterations to: %d\n\n", n)

	cmd.Println("Step 2: Edit Policy")
	cmd.Println("-------------------")
	policies := []domain.EditPolicy{domain.EditPolicyRegenerate, domain.EditPolicyCritique}
	for i, p := range policies {
		cmd.Printf("  %d. %s\n", i+1, p)
	}
	cmd.Print("\nEnter choice [1]: ")
	policy := policies[parseChoice(readLine(reader), len(policies), 1)-1]
	if err := settingsService.SetEditPolicy(policy); err != nil {
		return fmt.Errorf("failed to set edit policy: %w", err)
	}
	cmd.Printf("Set edit policy to: %s\n\n", policy)

	cmd.Println("Step 3: Configure LLM Provider")
	cmd.Println("------------------------------")
	if err := configureLLMProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 4: Configure Embedding Provider")
	cmd.Println("------------------------------------")
	if err := configureEmbeddingProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsIterations(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", domain.ErrInvalidConfig, args[0])
	}
	if err := settingsService.SetMaxIterations(n); err != nil {
		return fmt.Errorf("failed to set max iterations: %w", err)
	}
	cmd.Printf("Max iterations set to: %d\n", n)
	return nil
}

func runSettingsPolicy(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	policy := domain.EditPolicy(strings.ToLower(strings.TrimSpace(args[0])))
	if err := settingsService.SetEditPolicy(policy); err != nil {
		return fmt.Errorf("failed to set edit policy: %w", err)
	}
	cmd.Printf("Edit policy set to: %s\n", policy)
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	return configureEmbeddingProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	return configureLLMProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

var dsnPrompts = map[domain.IndexBackend]string{
	domain.IndexBackendPostgres: "Enter PostgreSQL DSN: ",
	domain.IndexBackendQdrant:   "Enter Qdrant address (host:port): ",
}

func runSettingsIndex(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	backends := domain.AllIndexBackends()
	cmd.Println("Select Index Backend")
	for i, b := range backends {
		cmd.Printf("  %d. %s\n", i+1, b)
	}
	cmd.Print("\nEnter choice [1]: ")
	backend := backends[parseChoice(readLine(reader), len(backends), 1)-1]

	var dsn string
	if backend.NeedsDSN() {
		cmd.Print(dsnPrompts[backend])
		dsn = readLine(reader)
		if dsn == "" {
			return fmt.Errorf("a DSN is required for the %s backend", backend)
		}
	}

	if err := settingsService.SetIndexBackend(backend, dsn); err != nil {
		return fmt.Errorf("failed to set index backend: %w", err)
	}
	cmd.Printf("Index backend set to: %s\n", backend)
	if backend != domain.IndexBackendMemory {
		cmd.Println("Run 'folio index repair' to index existing versions in the new backend.")
	}
	return nil
}

//nolint:dupl // Similar to configureLLMProvider but for embeddings - intentional for CLI flow clarity
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	selectedProvider := providers[parseChoice(readLine(reader), len(providers), 1)-1]

	defaultModel := domain.DefaultEmbeddingModels()[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Printf("Embedding provider configured: %s (%s)\n", selectedProvider.Description(), model)
	if selectedProvider.RequiresAPIKey() {
		cmd.Println("Set FOLIO_EMBEDDING_API_KEY (or the provider's key variable) before running folio.")
	}
	cmd.Println()
	return nil
}

//nolint:dupl // Similar to configureEmbeddingProvider but for LLM - intentional for CLI flow clarity
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	selectedProvider := providers[parseChoice(readLine(reader), len(providers), 1)-1]

	defaultModel := domain.DefaultLLMModels()[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Printf("LLM provider configured: %s (%s)\n", selectedProvider.Description(), model)
	if selectedProvider.RequiresAPIKey() {
		cmd.Println("Set FOLIO_LLM_API_KEY (or the provider's key variable) before running folio.")
	}
	cmd.Println()
	return nil
}

// Helper functions.

func readLine(reader *bufio.Reader) string {
	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func describeKey(key string) string {
	if key == "" {
		return "(not set in environment)"
	}
	return maskAPIKey(key)
}

func describeConfigured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password in a postgres URL.
func maskDSN(dsn string) string {
	if dsn == "" {
		return "(not set)"
	}
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if user, _, ok := strings.Cut(creds, ":"); ok {
		return dsn[:scheme+3] + user + ":****" + dsn[at:]
	}
	return dsn
}
