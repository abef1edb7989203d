package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

const maxHistoryTurns = 10

func UploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Upload a PDF to the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api := NewAPIClientWithCmd(cmd)
			documentID, _ := cmd.Flags().GetString("document-id")
			quiet, _ := cmd.Flags().GetBool("quiet")

			var progress ProgressFunc
			if !quiet {
				progress = progressPrinter(cmd.ErrOrStderr())
			}

			result, err := api.UploadFile(cmd.Context(), args[0], documentID, progress)
			if !quiet {
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s as %s (%d chunks)\n", result.DocumentName, result.DocumentID, result.Chunks)
			return nil
		},
	}
	cmd.Flags().String("document-id", "", "Document id (generated by the server when empty)")
	cmd.Flags().BoolP("quiet", "q", false, "Do not print upload progress")
	return cmd
}

func ChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask questions about uploaded documents",
		Long: `Ask a single question, or start an interactive session when no question is given.
Interactive sessions send the recent conversation along with each question.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			api := NewAPIClientWithCmd(cmd)
			documentID, _ := cmd.Flags().GetString("document-id")
			limit, _ := cmd.Flags().GetInt("limit")
			maxChunks, _ := cmd.Flags().GetInt("max-chunks")
			base := ChatRequest{DocumentID: documentID, Limit: limit, MaxChunks: maxChunks}

			if len(args) > 0 {
				base.Message = strings.Join(args, " ")
				result, err := api.Chat(cmd.Context(), base)
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd.OutOrStdout(), result)
				}
				printAnswer(cmd.OutOrStdout(), result)
				return nil
			}

			return chatLoop(cmd, api, base, cmd.InOrStdin())
		},
	}
	cmd.Flags().String("document-id", "", "Restrict retrieval to one document")
	cmd.Flags().Int("limit", 0, "Maximum chunks to retrieve")
	cmd.Flags().Int("max-chunks", 0, "Maximum chunks the answer is grounded on")
	return cmd
}

func chatLoop(cmd *cobra.Command, api *APIClient, base ChatRequest, in io.Reader) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(in)
	var history []Turn

	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			fmt.Fprint(out, "> ")
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}

		req := base
		req.Message = question
		req.History = history
		result, err := api.Chat(cmd.Context(), req)
		if err != nil {
			return err
		}
		printAnswer(out, result)

		history = append(history, Turn{Role: "user", Content: question}, Turn{Role: "assistant", Content: result.Response})
		if len(history) > maxHistoryTurns {
			history = history[len(history)-maxHistoryTurns:]
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func DeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete an uploaded document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := NewAPIClientWithCmd(cmd).DeleteDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d chunks of %s\n", result.Removed, result.DocumentID)
			return nil
		},
	}
}

func HealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NewAPIClientWithCmd(cmd).Health(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func printAnswer(w io.Writer, result *ChatResult) {
	fmt.Fprintln(w, result.Response)
	if len(result.RetrievedChunks) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, c := range result.RetrievedChunks {
		name := c.DocumentName
		if name == "" {
			name = c.DocumentID
		}
		fmt.Fprintf(w, "  [%.2f] %s, %s\n", c.Similarity, name, c.Section)
	}
}

func progressPrinter(w io.Writer) ProgressFunc {
	last := -1
	return func(current, total int64) {
		if total <= 0 {
			return
		}
		pct := int(current * 100 / total)
		if pct == last {
			return
		}
		last = pct
		fmt.Fprintf(w, "\ruploading... %3d%%", pct)
	}
}

func jsonOutput(cmd *cobra.Command) bool {
	asJSON, _ := cmd.Flags().GetBool("output")
	return asJSON
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
