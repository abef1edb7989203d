package admin

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloo-solutions/docqa/internal/service"
	"github.com/cloo-solutions/docqa/internal/telemetry"
	"github.com/spf13/cobra"
)

func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from indexed documents",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	cmd.Flags().String("document-id", "", "Restrict retrieval to one document")
	cmd.Flags().Int("limit", 0, "Maximum chunks to retrieve (overrides DOCQA_QUERY_LIMIT)")
	cmd.Flags().Int("max-chunks", 0, "Maximum chunks placed in the prompt (overrides DOCQA_ANSWER_MAX_CHUNKS)")
	cmd.Flags().Bool("sources", false, "Print the retrieved chunks after the answer")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	env, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer env.initTelemetry()()
	ctx, tx := telemetry.StartTransaction(ctx, "docqad ask", "cli.command")
	defer tx.End()

	a, err := newApp(ctx, env.cfg, env.logger, appOptions{requireDatabase: true})
	if err != nil {
		tx.SetError(err)
		return err
	}
	defer a.Close()

	documentID, _ := cmd.Flags().GetString("document-id")
	limit, _ := cmd.Flags().GetInt("limit")
	maxChunks, _ := cmd.Flags().GetInt("max-chunks")

	result, err := a.documents.Ask(ctx, service.AskInput{
		Question:   strings.Join(args, " "),
		DocumentID: documentID,
		Limit:      limit,
		MaxChunks:  maxChunks,
	})
	if err != nil {
		tx.SetError(err)
		return err
	}

	out := cmd.OutOrStdout()
	outputFormat, _ := cmd.Flags().GetString("output")
	if outputFormat == "json" {
		sources := make([]map[string]interface{}, len(result.Retrieved))
		for i, r := range result.Retrieved {
			sources[i] = map[string]interface{}{
				"chunk_id":      r.ChunkID,
				"document_id":   r.DocumentID,
				"document_name": r.DocumentName,
				"section":       r.Section,
				"similarity":    r.Similarity,
			}
		}
		data, _ := json.MarshalIndent(map[string]interface{}{
			"response":         result.Answer,
			"retrieved_chunks": sources,
		}, "", "  ")
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintln(out, result.Answer)
	if showSources, _ := cmd.Flags().GetBool("sources"); showSources {
		fmt.Fprintln(out)
		for _, r := range result.Retrieved {
			fmt.Fprintf(out, "  %.3f  %s  %s  #%d\n", r.Similarity, r.DocumentID, r.Section, r.ChunkID)
		}
	}
	return nil
}
