package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbox/internal/adapters/driving/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [collection] [dir]",
	Short: "Ingest files as they change in a directory",
	Long: `Watches a directory tree and ingests new and modified files into a
collection. Changed files are staged for 'ragbox update' unless
--auto-confirm is set. Hidden files and directories are ignored.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Bool("auto-confirm", false, "replace changed files without staging them")
	watchCmd.Flags().Bool("initial", true, "ingest existing files before watching")
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before a changed file is ingested")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}
	if collectionService != nil {
		if _, err := collectionService.Get(cmd.Context(), args[0]); err != nil {
			return describeError(err)
		}
	}

	autoConfirm, _ := cmd.Flags().GetBool("auto-confirm")
	initial, _ := cmd.Flags().GetBool("initial")
	debounce, _ := cmd.Flags().GetDuration("debounce")
	if debounce <= 0 {
		debounce = watch.DefaultDebounce
	}

	w, err := watch.New(ingestService, watch.Config{
		Collection:  args[0],
		Dir:         args[1],
		Debounce:    debounce,
		AutoConfirm: autoConfirm,
		InitialScan: initial,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	cmd.Printf("Watching %s for '%s' (Ctrl+C to stop)\n", args[1], args[0])
	start := time.Now()
	if err := w.Run(cmd.Context()); err != nil {
		return err
	}
	cmd.Printf("Stopped after %s\n", time.Since(start).Round(time.Second))
	return nil
}
