package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, cmd *cobra.Command, serverURL, stdin string, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "docqa"}
	root.PersistentFlags().Bool("output", false, "")
	root.PersistentFlags().String("api-url", "", "")
	root.AddCommand(cmd)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, "--api-url", serverURL))
	err := root.Execute()
	return out.String(), err
}

func TestChatCmd_Interactive_SendsHistory(t *testing.T) {
	var requests []ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"response": "answer " + req.Message}})
	}))
	defer srv.Close()

	out, err := runCommand(t, ChatCmd(), srv.URL, "first\n\nsecond\nexit\nignored\n", "chat", "--document-id", "doc-1")
	require.NoError(t, err)

	require.Len(t, requests, 2)
	assert.Empty(t, requests[0].History)
	assert.Equal(t, "doc-1", requests[1].DocumentID)
	assert.Equal(t, []Turn{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "answer first"},
	}, requests[1].History)
	assert.Contains(t, out, "answer second")
}

func TestChatCmd_SingleQuestion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{
			"response": "Revenue was 1,200.",
			"retrieved_chunks": []map[string]interface{}{
				{"chunk_id": 1, "document_id": "doc-1", "document_name": "annual.pdf", "section": "uploaded_chunk_1", "similarity": 0.9},
			},
		}})
	}))
	defer srv.Close()

	out, err := runCommand(t, ChatCmd(), srv.URL, "", "chat", "What", "was", "revenue?")
	require.NoError(t, err)
	assert.Contains(t, out, "Revenue was 1,200.")
	assert.Contains(t, out, "[0.90] annual.pdf, uploaded_chunk_1")
}

func TestDeleteCmd_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"document_id": "doc-1", "removed": 2}})
	}))
	defer srv.Close()

	out, err := runCommand(t, DeleteCmd(), srv.URL, "", "delete", "doc-1", "--output")
	require.NoError(t, err)

	var result DeleteResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, DeleteResult{DocumentID: "doc-1", Removed: 2}, result)
}

func TestHealthCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]string{"status": "ok"}})
	}))
	defer srv.Close()

	out, err := runCommand(t, HealthCmd(), srv.URL, "", "health")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)
}

func TestProgressPrinter_SkipsRepeats(t *testing.T) {
	var buf bytes.Buffer
	p := progressPrinter(&buf)
	p(0, 0)
	p(0, 200)
	p(1, 200)
	p(200, 200)

	assert.Equal(t, 2, strings.Count(buf.String(), "uploading"))
	assert.Contains(t, buf.String(), "100%")
}
