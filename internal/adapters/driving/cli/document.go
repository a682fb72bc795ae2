package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"documents", "doc"},
	Short:   "Manage indexed documents",
	Long:    `List the chunks and files of a collection, or delete chunks by id.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list [collection]",
	Short: "List every chunk of a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentList,
}

var documentFilesCmd = &cobra.Command{
	Use:   "files [collection]",
	Short: "List the files of a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentFiles,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [collection] [doc-ids...]",
	Short: "Delete chunks by id",
	Long:  `Deletes exactly the given chunk ids. Other chunks of the same file are kept.`,
	Args:  cobra.MinimumNArgs(2),
	RunE:  runDocumentDelete,
}

// previewLength is how much chunk text 'document list' shows.
const previewLength = 60

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentFilesCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

type documentView struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata"`
	Text     string         `json:"text"`
}

type fileView struct {
	FileName    string   `json:"file_name"`
	Fingerprint string   `json:"fingerprint"`
	Chunks      int      `json:"chunks"`
	ChunkIDs    []string `json:"chunk_ids"`
}

type deleteView struct {
	Message string                `json:"message"`
	Results []domain.DeleteResult `json:"results"`
}

func runDocumentList(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	chunks, err := documentService.List(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", describeError(err))
	}

	views := make([]documentView, len(chunks))
	for i, c := range chunks {
		views[i] = documentView{ID: c.ID, Metadata: c.Metadata, Text: c.Content}
	}

	return render(cmd.OutOrStdout(), map[string][]documentView{"documents": views}, func() {
		if len(chunks) == 0 {
			cmd.Printf("No documents in collection: %s\n", args[0])
			return
		}
		t := newTable("ID", "File", "#", "Text")
		for _, c := range chunks {
			t.Row(c.ID, c.FileName, strconv.Itoa(c.Position), preview(c.Content, previewLength))
		}
		cmd.Println(t.Render())
		cmd.Printf("Total: %d chunks\n", len(chunks))
	})
}

func runDocumentFiles(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	groups, err := documentService.Files(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list files: %w", describeError(err))
	}

	views := make([]fileView, len(groups))
	for i, g := range groups {
		views[i] = fileView{
			FileName:    g.FileName,
			Fingerprint: g.Fingerprint,
			Chunks:      len(g.ChunkIDs),
			ChunkIDs:    g.ChunkIDs,
		}
	}

	return render(cmd.OutOrStdout(), map[string][]fileView{"files": views}, func() {
		if len(views) == 0 {
			cmd.Printf("No files in collection: %s\n", args[0])
			return
		}
		t := newTable("File", "Chunks", "Fingerprint")
		for _, v := range views {
			t.Row(v.FileName, strconv.Itoa(v.Chunks), shortFingerprint(v.Fingerprint))
		}
		cmd.Println(t.Render())
		cmd.Printf("Total: %d files\n", len(views))
	})
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	results, err := documentService.Delete(cmd.Context(), args[0], args[1:])
	if results == nil {
		if err == nil {
			err = errors.New("no results")
		}
		return fmt.Errorf("failed to delete documents: %w", describeError(err))
	}

	deleted := 0
	for _, r := range results {
		if r.Status == domain.DeleteStatusDeleted {
			deleted++
		}
	}
	view := deleteView{
		Message: fmt.Sprintf("Deleted %d of %d documents", deleted, len(results)),
		Results: results,
	}

	if rerr := render(cmd.OutOrStdout(), view, func() {
		for _, r := range results {
			line := fmt.Sprintf("  %s: %s", r.ID, r.Status)
			if r.Error != "" {
				line += " (" + r.Error + ")"
			}
			cmd.Println(line)
		}
		cmd.Println(view.Message)
	}); rerr != nil {
		return rerr
	}
	if err != nil {
		return describeError(err)
	}
	return nil
}

// preview flattens text onto one line and truncates it to n runes.
func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n-3]) + "..."
}

// shortFingerprint keeps the algorithm and the first 12 hex digits.
func shortFingerprint(fp string) string {
	algo, hex, ok := strings.Cut(fp, ":")
	if !ok || len(hex) <= 12 {
		return fp
	}
	return algo + ":" + hex[:12]
}
