package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio/internal/core/domain"
)

var (
	searchLimit   int
	searchJSON    bool
	searchChapter string
	searchStages  []string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find versions by meaning",
	Long: `Embeds the query and returns the committed versions whose meaning is
closest to it, ranked by cosine similarity. Every version is searchable,
including superseded drafts.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Maintain the semantic index",
}

var indexRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Index committed versions missing from the vector index",
	Long: `Versions committed while the embedding service was unavailable are
not searchable. Repair embeds them now.`,
	Args: cobra.NoArgs,
	RunE: runIndexRepair,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default search.similarity_top_k)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVarP(&searchChapter, "chapter", "c", "", "restrict results to one chapter")
	searchCmd.Flags().StringSliceVarP(&searchStages, "stage", "s", nil, "restrict results to these stages")
	requires(searchCmd, NeedSearch)
	requires(indexRepairCmd, NeedSearch)
	indexCmd.AddCommand(indexRepairCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(indexCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}
	if !searchService.Available() {
		return fmt.Errorf("%w: configure an embedding provider with 'folio settings'",
			domain.ErrEmbeddingUnavailable)
	}

	opts := domain.SearchOptions{
		Limit:     searchLimit,
		ChapterID: searchChapter,
	}
	for _, name := range searchStages {
		stage, err := domain.ParseStage(name)
		if err != nil {
			return fmt.Errorf("invalid --stage %q: %w", name, err)
		}
		opts.Stages = append(opts.Stages, stage)
	}

	results, err := searchService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		v := &results[i].Version
		title := results[i].ChapterTitle
		if title == "" {
			title = v.ChapterID
		}

		// Format: [N] Title - #seq STAGE (Score)
		cmd.Printf("  [%d] %s - #%d %s (%.2f)\n", i+1, title, v.Sequence, v.Stage, results[i].Score)
		cmd.Printf("      Version: %s\n", v.ID)
		cmd.Printf("      %s\n", preview(v.Content, previewLength))
		cmd.Println()
	}

	return nil
}

func runIndexRepair(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}
	if !searchService.Available() {
		return fmt.Errorf("%w: configure an embedding provider with 'folio settings'",
			domain.ErrEmbeddingUnavailable)
	}

	n, err := searchService.Reconcile(cmd.Context())
	if err != nil {
		return fmt.Errorf("repair failed after %d versions: %w", n, err)
	}
	cmd.Printf("Indexed %d versions.\n", n)

	size, err := searchService.IndexSize(cmd.Context())
	if err != nil {
		return fmt.Errorf("count index entries: %w", err)
	}
	cmd.Printf("Index holds %d entries.\n", size)
	return nil
}
