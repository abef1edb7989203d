//go:build e2e

package e2e

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/docqa/internal/api/handlers"
	"github.com/cloo-solutions/docqa/internal/cli/client"
	"github.com/cloo-solutions/docqa/internal/generation"
	"github.com/cloo-solutions/docqa/internal/repository"
	"github.com/cloo-solutions/docqa/internal/server"
	"github.com/cloo-solutions/docqa/internal/service"
	"github.com/cloo-solutions/docqa/internal/storage"
	"github.com/cloo-solutions/docqa/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reportText = `Revenue for fiscal 2023 reached 1,200 thousand dollars.

Cash on hand at year end was 300 thousand dollars.

Long term debt was refinanced during the second quarter.`

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	S3C        *testutil.S3Container
	Pool       *pgxpool.Pool
	Archive    *storage.S3Archive
	Server     *httptest.Server
	Client     *client.APIClient
	Backend    *recordingBackend
	Collection *repository.ChunkCollection
}

// SetupE2EEnv starts Postgres and S3 containers and serves the full pipeline over HTTP.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewS3Container(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	archive, err := storage.NewS3Archive(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     testutil.S3AccessKey,
		SecretAccessKey: testutil.S3SecretKey,
		Bucket:          "docqa-e2e",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	if err := archive.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	collection := repository.NewChunkCollection(pool, repository.DistanceCosine)
	store := service.NewEmbeddingStore(axisEmbedder{}, collection, repository.NewChunkSequence(pool),
		service.WithStoreLogger(logger))
	backend := &recordingBackend{answer: "Revenue was 1,200 thousand dollars."}
	answerer := generation.NewRouter("recording", backend, generation.WithLogger(logger))
	svc := service.NewDocumentService(fixedExtractor{text: reportText}, store, answerer,
		service.WithArchive(archive),
		service.WithDocumentLogger(logger))

	srv := httptest.NewServer(server.NewRouter(server.RouterConfig{
		DocumentHandler: handlers.NewDocumentHandler(svc),
		ChatHandler:     handlers.NewChatHandler(svc),
		HealthHandler:   handlers.NewHealthHandler(map[string]handlers.Pinger{"database": collection}),
		Logger:          logger,
	}))

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		S3C:        s3C,
		Pool:       pool,
		Archive:    archive,
		Server:     srv,
		Client:     client.NewAPIClient(srv.URL, 30*time.Second),
		Backend:    backend,
		Collection: collection,
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.S3C != nil {
		_ = e.S3C.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		_ = e.PostgresC.Terminate(e.Ctx)
	}
}

// WritePDF writes a placeholder PDF; the pipeline's extractor is stubbed.
func (e *E2ETestEnv) WritePDF(name string) string {
	path := filepath.Join(e.T.TempDir(), name)
	if err := os.WriteFile(path, []byte("%PDF-1.4\n%%EOF\n"), 0o600); err != nil {
		e.T.Fatalf("failed to write pdf: %v", err)
	}
	return path
}

type fixedExtractor struct{ text string }

func (f fixedExtractor) Extract(context.Context, []byte) (string, error) { return f.text, nil }

// axisEmbedder scores text on a few financial keywords.
type axisEmbedder struct{}

func (axisEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	axes := []string{"revenue", "cash", "debt"}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		v := make([]float32, len(axes)+1)
		for j, a := range axes {
			v[j] = float32(strings.Count(lower, a))
		}
		v[len(axes)] = 0.1
		out[i] = v
	}
	return out, nil
}

type recordingBackend struct {
	answer  string
	prompts []string
}

func (b *recordingBackend) Generate(_ context.Context, prompt string) (string, error) {
	b.prompts = append(b.prompts, prompt)
	return b.answer, nil
}
