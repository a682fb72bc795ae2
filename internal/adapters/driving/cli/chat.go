package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui"
)

// chatCmd represents the chat command.
var chatCmd = &cobra.Command{
	Use:   "chat [collection]",
	Short: "Ask questions in the interactive terminal UI",
	Long: `Opens the interactive terminal UI. With a collection it goes straight
to the chat for that collection; otherwise pick one from the list.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Open / Ask
  n        - New question
  s        - Show or hide sources
  Esc      - Back
  ?        - Help
  ctrl+c   - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panicked: %v", r)
		}
	}()

	var collection string
	if len(args) == 1 {
		collection = args[0]
		if collectionService == nil {
			return errNotConfigured("collection")
		}
		if _, err := collectionService.Get(cmd.Context(), collection); err != nil {
			return describeError(err)
		}
	}

	ports := &tui.Ports{
		Collections: collectionService,
		Query:       queryService,
		Documents:   documentService,
	}

	app, err := tui.NewApp(ports, collection)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
