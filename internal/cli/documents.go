package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show document and chunk counts for the owner",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every chunk of the owner",
	Args:  cobra.NoArgs,
	RunE:  runPurge,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [document-id]",
	Short: "Delete one document of the owner",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents across owners",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output stats as JSON")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	if err := requireService(); err != nil {
		return err
	}
	if err := requireOwner(); err != nil {
		return err
	}

	stats, err := ragService.OwnerStats(cmd.Context(), ownerID)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}

	if statsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Owner %d:\n", ownerID)
	cmd.Printf("  Documents: %d\n", stats.DocumentCount)
	cmd.Printf("  Chunks:    %d\n", stats.ChunkCount)
	return nil
}

func runPurge(cmd *cobra.Command, args []string) error {
	if err := requireService(); err != nil {
		return err
	}
	if err := requireOwner(); err != nil {
		return err
	}

	n, err := ragService.ClearOwner(cmd.Context(), ownerID)
	if err != nil {
		return fmt.Errorf("failed to purge owner %d: %w", ownerID, err)
	}
	cmd.Printf("Deleted %d chunks for owner %d\n", n, ownerID)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := requireService(); err != nil {
		return err
	}
	if err := requireOwner(); err != nil {
		return err
	}

	n, err := ragService.DeleteDocument(cmd.Context(), ownerID, args[0])
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	cmd.Printf("Deleted %d chunks of %s\n", n, args[0])
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	if err := requireService(); err != nil {
		return err
	}

	docs, err := ragService.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	for _, d := range docs {
		cmd.Printf("  %s\n", d.DocumentID)
		cmd.Printf("    Owner:  %d\n", d.OwnerID)
		if d.SourceURL != "" {
			cmd.Printf("    Source: %s\n", d.SourceURL)
		}
		cmd.Printf("    Chunks: %d\n", d.ChunkCount)
	}
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}
