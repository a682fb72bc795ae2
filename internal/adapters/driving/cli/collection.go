package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var collectionCmd = &cobra.Command{
	Use:     "collection",
	Aliases: []string{"collections"},
	Short:   "Manage collections",
	Long:    `Create, list, rename and delete collections of documents.`,
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all collections",
	Args:  cobra.NoArgs,
	RunE:  runCollectionList,
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create an empty collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionCreate,
}

var collectionRenameCmd = &cobra.Command{
	Use:   "rename [name] [new-name]",
	Short: "Rename a collection",
	Long:  `Renames a collection. Its documents are kept and nothing is re-indexed.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runCollectionRename,
}

var collectionDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a collection and all of its documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionDelete,
}

func init() {
	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionCreateCmd)
	collectionCmd.AddCommand(collectionRenameCmd)
	collectionCmd.AddCommand(collectionDeleteCmd)
	rootCmd.AddCommand(collectionCmd)
}

type collectionsView struct {
	Collections []string `json:"collections"`
}

func runCollectionList(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return errNotConfigured("collection")
	}

	names, err := collectionService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", describeError(err))
	}
	if names == nil {
		names = []string{}
	}

	return render(cmd.OutOrStdout(), collectionsView{Collections: names}, func() {
		if len(names) == 0 {
			cmd.Println("No collections yet. Create one with 'ragbox collection create <name>'.")
			return
		}
		for _, name := range names {
			cmd.Println(name)
		}
	})
}

func runCollectionCreate(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errNotConfigured("collection")
	}

	c, err := collectionService.Create(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", describeError(err))
	}

	cmd.Printf("Collection '%s' created successfully\n", c.Name)
	return nil
}

func runCollectionRename(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errNotConfigured("collection")
	}

	if err := collectionService.Rename(cmd.Context(), args[0], args[1]); err != nil {
		return fmt.Errorf("failed to rename collection: %w", describeError(err))
	}

	cmd.Printf("Collection '%s' renamed to '%s'\n", args[0], args[1])
	return nil
}

func runCollectionDelete(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errNotConfigured("collection")
	}

	if err := collectionService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete collection: %w", describeError(err))
	}

	cmd.Printf("Collection '%s' deleted successfully\n", args[0])
	return nil
}
