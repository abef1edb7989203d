package admin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloo-solutions/docqa/internal/service"
	"github.com/cloo-solutions/docqa/internal/telemetry"
	"github.com/spf13/cobra"
)

func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file.pdf>",
		Short: "Extract, chunk and index a PDF",
		Long:  "Extract text from a PDF, split it into chunks and store their embeddings in the configured database.",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().String("document-id", "", "Document id (generated when empty)")
	cmd.Flags().String("name", "", "Display name (defaults to the file name)")
	cmd.Flags().Int("max-chars", 0, "Maximum characters per chunk (overrides DOCQA_CHUNK_MAX_CHARS)")
	cmd.Flags().Int("overlap", -1, "Overlap between windows of long paragraphs (overrides DOCQA_CHUNK_OVERLAP_CHARS)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	env, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer env.initTelemetry()()
	ctx, tx := telemetry.StartTransaction(ctx, "docqad ingest", "cli.command")
	defer tx.End()

	a, err := newApp(ctx, env.cfg, env.logger, appOptions{requireDatabase: true})
	if err != nil {
		tx.SetError(err)
		return err
	}
	defer a.Close()

	documentID, _ := cmd.Flags().GetString("document-id")
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = filepath.Base(path)
	}

	result, err := a.documents.Upload(ctx, service.UploadInput{
		DocumentID: documentID,
		Filename:   name,
		Data:       data,
		Chunking:   chunkOverride(cmd, env.cfg.ChunkMaxChars, env.cfg.ChunkOverlapChars),
	})
	if err != nil {
		tx.SetError(err)
		return fmt.Errorf("failed to ingest %s: %w", path, err)
	}

	outputFormat, _ := cmd.Flags().GetString("output")
	if outputFormat == "json" {
		out, _ := json.MarshalIndent(map[string]interface{}{
			"document_id":   result.DocumentID,
			"document_name": result.DocumentName,
			"chunks":        result.Chunks,
		}, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %s as %s (%d chunks)\n", result.DocumentName, result.DocumentID, result.Chunks)
	return nil
}

// chunkOverride returns nil unless a chunking flag was given.
func chunkOverride(cmd *cobra.Command, maxChars, overlap int) *service.ChunkConfig {
	maxFlag := cmd.Flags().Lookup("max-chars")
	overlapFlag := cmd.Flags().Lookup("overlap")
	if !maxFlag.Changed && !overlapFlag.Changed {
		return nil
	}
	if maxFlag.Changed {
		maxChars, _ = cmd.Flags().GetInt("max-chars")
	}
	if overlapFlag.Changed {
		overlap, _ = cmd.Flags().GetInt("overlap")
	}
	return &service.ChunkConfig{MaxChars: maxChars, OverlapChars: overlap}
}
