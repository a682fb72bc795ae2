package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

var queryCmd = &cobra.Command{
	Use:   "query [collection] [question...]",
	Short: "Ask a question about a collection",
	Long: `Retrieves the passages of the collection most relevant to the question
and asks the language model to answer from them only.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runQuery,
}

// querySources is the --sources flag.
var querySources bool

func init() {
	queryCmd.Flags().BoolVarP(&querySources, "sources", "s", false, "print the passages the answer is based on")
	rootCmd.AddCommand(queryCmd)
}

type sourceView struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata"`
	Text     string         `json:"text"`
	Score    float64        `json:"score"`
}

type answerView struct {
	Question    string       `json:"question"`
	Answer      string       `json:"answer"`
	SourceNodes []sourceView `json:"source_nodes"`
	Error       string       `json:"error,omitempty"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errNotConfigured("query")
	}

	collection := args[0]
	question := strings.Join(args[1:], " ")

	answer, err := queryService.Query(cmd.Context(), collection, question)
	if err != nil && (answer == nil || !errors.Is(err, domain.ErrGenerationUnavailable)) {
		return fmt.Errorf("query failed: %w", describeError(err))
	}

	view := answerView{
		Question:    answer.Question,
		Answer:      answer.Answer,
		SourceNodes: make([]sourceView, len(answer.Sources)),
	}
	for i, p := range answer.Sources {
		view.SourceNodes[i] = sourceView{
			ID:       p.Chunk.ID,
			Metadata: p.Chunk.Metadata,
			Text:     p.Chunk.Content,
			Score:    p.Score,
		}
	}
	if err != nil {
		view.Error = err.Error()
	}

	rerr := render(cmd.OutOrStdout(), view, func() {
		if answer.Answer != "" {
			cmd.Println(answer.Answer)
		}
		if querySources || err != nil {
			printSources(cmd, answer.Sources)
		}
	})
	if rerr != nil {
		return rerr
	}
	if err != nil {
		return fmt.Errorf("no answer: %w", describeError(err))
	}
	return nil
}

func printSources(cmd *cobra.Command, passages []domain.Passage) {
	if len(passages) == 0 {
		cmd.Println("\nNo matching passages.")
		return
	}
	cmd.Println("\nSources:")
	for i, p := range passages {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, p.Chunk.FileName, p.Score)
		cmd.Printf("      %s\n", preview(p.Chunk.Content, 100))
	}
}
