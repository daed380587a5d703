package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sermon-rag/internal/corpus"
	"sermon-rag/internal/extract"
	"sermon-rag/internal/indexer"
	"sermon-rag/internal/service"
)

var indexDryRun bool

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Index every .txt and .md file under a directory",
	Long: `Walks a directory and ingests each supported file for the owner.
Document ids are derived from the relative path, so running the command
again replaces the earlier chunks of each file.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a single document",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	indexCmd.Flags().BoolVar(&indexDryRun, "dry-run", false, "list the files that would be indexed")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if err := requireService(); err != nil {
		return err
	}
	if err := requireOwner(); err != nil {
		return err
	}

	ctx := cmd.Context()
	files, err := corpus.Scan(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", args[0], err)
	}
	if len(files) == 0 {
		cmd.Println("No supported files found.")
		return nil
	}

	if indexDryRun {
		for _, f := range files {
			cmd.Printf("  %s (%d bytes)\n", f.RelPath, f.Size)
		}
		cmd.Printf("Total: %d files\n", len(files))
		return nil
	}

	var indexed, failed int
	for _, f := range files {
		result, err := ingestFile(cmd, f.AbsPath, f.RelPath, corpus.DocumentID(ownerID, f.RelPath))
		if err != nil {
			failed++
			cmd.Printf("  FAIL %s: %v\n", f.RelPath, err)
			continue
		}
		indexed++
		printResult(cmd, f.RelPath, result)
	}

	cmd.Printf("\nIndexed %d of %d files\n", indexed, len(files))
	if failed > 0 {
		return fmt.Errorf("%d files failed to index", failed)
	}
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := requireService(); err != nil {
		return err
	}
	if err := requireOwner(); err != nil {
		return err
	}

	path := args[0]
	result, err := ingestFile(cmd, path, filepath.Base(path), "")
	if err != nil {
		return err
	}
	printResult(cmd, filepath.Base(path), result)
	return nil
}

// ingestFile extracts and ingests one file. A degraded ingestion counts as a
// success; its partial counts are returned.
func ingestFile(cmd *cobra.Command, path, name, documentID string) (indexer.IngestResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return indexer.IngestResult{}, fmt.Errorf("failed to read file: %w", err)
	}
	text, err := extract.PlainText(name, content)
	if err != nil {
		return indexer.IngestResult{}, err
	}

	result, err := ragService.IngestDocument(cmd.Context(), service.IngestRequest{
		OwnerID:    ownerID,
		DocumentID: documentID,
		Text:       text,
		SourceURL:  name,
	})
	if err != nil {
		var ierr *indexer.IngestionError
		if errors.Is(err, indexer.ErrIngestionDegraded) && errors.As(err, &ierr) {
			return indexer.IngestResult{
				DocumentID:      ierr.DocumentID,
				ChunksTotal:     ierr.Total,
				ChunksAttempted: ierr.Attempted,
				ChunksStored:    ierr.Stored,
				ChunksFailed:    ierr.Failed,
				ElapsedMs:       ierr.Elapsed.Milliseconds(),
			}, nil
		}
		return indexer.IngestResult{}, err
	}
	return result, nil
}

func printResult(cmd *cobra.Command, name string, r indexer.IngestResult) {
	status := "OK  "
	if r.ChunksFailed > 0 || r.TimedOut {
		status = "PART"
	}
	cmd.Printf("  %s %s -> %s (%d/%d chunks, %dms)\n", status, name, r.DocumentID, r.ChunksStored, r.ChunksTotal, r.ElapsedMs)
}
