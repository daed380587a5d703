package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"sermon-rag/internal/rag"
)

var (
	contextTopic string
	contextAux   string
	contextK     int
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Print the reference block retrieved for a topic",
	Long: `Embeds the topic and auxiliary context, searches the owner's chunks (or
all chunks when --owner is omitted) and prints the numbered references.`,
	Args: cobra.NoArgs,
	RunE: runContext,
}

func init() {
	contextCmd.Flags().StringVarP(&contextTopic, "topic", "t", "", "sermon topic")
	contextCmd.Flags().StringVarP(&contextAux, "aux", "a", "", "auxiliary context, e.g. a passage reference")
	contextCmd.Flags().IntVarP(&contextK, "limit", "k", 0, "number of references (default from configuration)")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	if err := requireService(); err != nil {
		return err
	}
	if strings.TrimSpace(contextTopic) == "" && strings.TrimSpace(contextAux) == "" {
		return errors.New("--topic or --aux is required")
	}
	if contextK < 0 {
		return errors.New("-k must not be negative")
	}

	req := rag.ContextRequest{
		Topic:            contextTopic,
		AuxiliaryContext: contextAux,
		K:                contextK,
	}
	if ownerID > 0 {
		owner := ownerID
		req.OwnerID = &owner
	}

	block := ragService.BuildContext(cmd.Context(), req)
	if block == "" {
		cmd.Println("No relevant context found.")
		return nil
	}
	cmd.Println(block)
	return nil
}
