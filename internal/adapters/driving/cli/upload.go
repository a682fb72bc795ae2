package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [collection] [files...]",
	Short: "Add files to a collection",
	Long: `Adds files to a collection.

New files are indexed. Files identical to the stored version are skipped.
Files whose content changed are staged and you are asked whether to
replace them; answer later with 'ragbox update', or pass --yes to replace
without asking.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runUpload,
}

var updateCmd = &cobra.Command{
	Use:   "update [collection] [file-names...]",
	Short: "Replace files with their staged uploads",
	Long:  `Confirms the staged changes of previously uploaded files, replacing their indexed content.`,
	Args:  cobra.MinimumNArgs(2),
	RunE:  runUpdate,
}

var pendingCmd = &cobra.Command{
	Use:   "pending [collection]",
	Short: "List uploads waiting for confirmation",
	Args:  cobra.ExactArgs(1),
	RunE:  runPending,
}

// uploadYes is the --yes flag of upload.
var uploadYes bool

// isTerminal reports whether stdin is interactive.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func init() {
	uploadCmd.Flags().BoolVarP(&uploadYes, "yes", "y", false, "replace changed files without asking")
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(pendingCmd)
}

type ingestView struct {
	Message       string              `json:"message"`
	FilesToUpdate []string            `json:"files_to_update,omitempty"`
	Results       []domain.FileResult `json:"results"`
}

func runUpload(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	collection := args[0]
	files, err := readUploads(args[1:])
	if err != nil {
		return err
	}

	var opts domain.IngestOptions
	if uploadYes {
		for _, f := range files {
			opts.Confirm = append(opts.Confirm, f.FileName)
		}
	}

	result, err := ingestService.Ingest(cmd.Context(), collection, files, opts)
	if err != nil {
		return fmt.Errorf("failed to upload: %w", describeError(err))
	}

	if result.Conflict && outputFormat == formatTable && isTerminal() {
		printIngestResult(cmd, result)
		if !confirm(cmd, result.Prompt()) {
			cmd.Printf("Left unchanged. Run 'ragbox update %s %s' to apply later.\n",
				collection, strings.Join(result.FilesToUpdate, " "))
			return failedFiles(result)
		}
		confirmed, err := ingestService.ConfirmUpdates(cmd.Context(), collection, result.FilesToUpdate)
		if err != nil {
			return fmt.Errorf("failed to update: %w", describeError(err))
		}
		result = result.Merge(confirmed)
	}

	if err := renderIngestResult(cmd, result); err != nil {
		return err
	}
	if result.Conflict && outputFormat == formatTable {
		cmd.Printf("Run 'ragbox update %s %s' to replace them, or upload again with --yes.\n",
			collection, strings.Join(result.FilesToUpdate, " "))
	}
	return failedFiles(result)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	result, err := ingestService.ConfirmUpdates(cmd.Context(), args[0], args[1:])
	if err != nil {
		return fmt.Errorf("failed to update: %w", describeError(err))
	}
	if err := renderIngestResult(cmd, result); err != nil {
		return err
	}
	return failedFiles(result)
}

type pendingView struct {
	FileName    string `json:"file_name"`
	Fingerprint string `json:"fingerprint"`
	Size        int    `json:"size"`
	StagedAt    string `json:"staged_at"`
}

func runPending(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	staged, err := ingestService.Pending(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list pending uploads: %w", describeError(err))
	}

	views := make([]pendingView, len(staged))
	for i, p := range staged {
		views[i] = pendingView{
			FileName:    p.FileName,
			Fingerprint: p.Fingerprint,
			Size:        len(p.Content),
			StagedAt:    p.StagedAt.Format("2006-01-02 15:04:05"),
		}
	}

	return render(cmd.OutOrStdout(), map[string][]pendingView{"pending": views}, func() {
		if len(views) == 0 {
			cmd.Println("No uploads waiting for confirmation.")
			return
		}
		t := newTable("File", "Size", "Staged")
		for _, v := range views {
			t.Row(v.FileName, strconv.Itoa(v.Size), v.StagedAt)
		}
		cmd.Println(t.Render())
	})
}

// readUploads reads the named files. The stored file name is the base name.
func readUploads(paths []string) ([]domain.UploadFile, error) {
	files := make([]domain.UploadFile, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory (use 'ragbox watch' to ingest a tree)", path)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		files = append(files, domain.UploadFile{
			FileName:   filepath.Base(path),
			Path:       path,
			Content:    content,
			ModifiedAt: info.ModTime(),
		})
	}
	return files, nil
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, question string) bool {
	cmd.Printf("%s [y/N]: ", question)
	reader := bufio.NewReader(cmd.InOrStdin())
	answer := strings.ToLower(readLine(reader))
	return answer == "y" || answer == "yes"
}

func renderIngestResult(cmd *cobra.Command, result *domain.IngestResult) error {
	view := ingestView{
		Message:       result.Message(),
		FilesToUpdate: result.FilesToUpdate,
		Results:       result.Files,
	}
	if view.Results == nil {
		view.Results = []domain.FileResult{}
	}
	return render(cmd.OutOrStdout(), view, func() {
		printIngestResult(cmd, result)
		cmd.Println(result.Message())
	})
}

func printIngestResult(cmd *cobra.Command, result *domain.IngestResult) {
	if len(result.Files) == 0 {
		return
	}
	t := newTable("File", "Outcome", "Chunks", "Reason")
	for _, f := range result.Files {
		chunks := ""
		if f.Chunks > 0 {
			chunks = strconv.Itoa(f.Chunks)
		}
		t.Row(f.FileName, string(f.Outcome), chunks, f.Reason)
	}
	cmd.Println(t.Render())
}

// failedFiles turns failed outcomes into a non-zero exit.
func failedFiles(result *domain.IngestResult) error {
	if n := result.Count(domain.OutcomeFailed); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, len(result.Files))
	}
	return nil
}
