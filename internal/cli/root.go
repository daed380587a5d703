// Package cli implements the ragctl command line.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"sermon-rag/internal/service"
)

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Index sermons and assemble retrieval context",
	Long: `ragctl manages the sermon retrieval index: it ingests documents for an owner,
reports per-owner statistics, deletes documents and prints the reference
block that would be handed to a generator for a topic.`,
	SilenceUsage: true,
}

// ownerID is the --owner persistent flag.
var ownerID int64

// ragService is injected by main before Execute.
var ragService service.RAGService

func init() {
	rootCmd.PersistentFlags().Int64VarP(&ownerID, "owner", "o", 0, "owner (user) id the command acts on")
}

// SetService configures the service used by every command.
func SetService(s service.RAGService) {
	ragService = s
}

// Execute runs the root command with ctx. Command output goes to stdout.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

func requireService() error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}
	return nil
}

func requireOwner() error {
	if ownerID <= 0 {
		return errors.New("--owner must be a positive id")
	}
	return nil
}
