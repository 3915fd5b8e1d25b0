package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/41rumble/great-fire-smyrna-rag/internal/util"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/ai"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/graph"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/loader"
	ioloader "github.com/41rumble/great-fire-smyrna-rag/pkg/loader/io"
	s3loader "github.com/41rumble/great-fire-smyrna-rag/pkg/loader/s3"
	webloader "github.com/41rumble/great-fire-smyrna-rag/pkg/loader/web"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/logger"
	storepgx "github.com/41rumble/great-fire-smyrna-rag/pkg/store/pgx"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IngestJob is the payload published to the ingest queue. Path selects the
// loader backend by scheme: s3:// prefix, http(s):// URL, or a local
// directory/file.
type IngestJob struct {
	Path        string `json:"path"`
	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	Year        int    `json:"year,omitempty"`
	Perspective string `json:"perspective,omitempty"`
	Language    string `json:"language,omitempty"`
}

// ProcessIngestMessage handles one ingest job: resolve the loader backend,
// enumerate the book files and run the graph pipeline over each of them.
func ProcessIngestMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	aiClient ai.NarrativeAIClient,
	pgConn *pgxpool.Pool,
	body string,
) error {
	var job IngestJob
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return fmt.Errorf("failed to parse ingest job: %w", err)
	}
	if strings.TrimSpace(job.Path) == "" {
		return fmt.Errorf("ingest job has no path")
	}

	storage, err := storepgx.NewGraphDBStorageWithConnection(ctx, pgConn, aiClient)
	if err != nil {
		return err
	}

	chunkDelay := time.Duration(util.GetEnvNumeric("INGEST_CHUNK_DELAY_MS", 1000)) * time.Millisecond
	graphClient := graph.NewNarrativeGraphClient(
		aiClient,
		storage,
		graph.WithTargetWords(int(util.GetEnvNumeric("INGEST_TARGET_WORDS", 1200))),
		graph.WithChunkDelay(chunkDelay),
	)

	files, err := resolveBookFiles(ctx, s3Client, job)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Warn("[Queue][Ingest] No book files found", "path", job.Path)
		return nil
	}

	for _, file := range files {
		logger.Info("[Queue][Ingest] Processing book", "id", file.ID, "path", file.FilePath)
		report, err := graphClient.ProcessBook(ctx, file)
		if err != nil {
			return fmt.Errorf("failed to process book %s: %w", file.ID, err)
		}
		logger.Info("[Queue][Ingest] Book done",
			"id", file.ID,
			"episodes", report.Episodes,
			"entities", report.Entities,
			"relationships", report.Relationships)
	}

	return nil
}

func resolveBookFiles(ctx context.Context, s3Client *awss3.Client, job IngestJob) ([]loader.BookFile, error) {
	switch {
	case strings.HasPrefix(job.Path, "s3://"):
		bucket := util.GetEnv("AWS_BUCKET")
		prefix := strings.TrimPrefix(job.Path, "s3://")
		l := s3loader.NewS3BookFileLoaderWithClient(bucket, s3Client)
		keys, err := l.ListTextKeys(ctx, prefix)
		if err != nil {
			return nil, err
		}
		var files []loader.BookFile
		for _, key := range keys {
			files = append(files, newBookFile(job, key, l))
		}
		return files, nil

	case strings.HasPrefix(job.Path, "http://"), strings.HasPrefix(job.Path, "https://"):
		return []loader.BookFile{newBookFile(job, job.Path, webloader.NewWebBookFileLoader())}, nil

	default:
		l := ioloader.NewIOBookFileLoader()
		if hasTextExtension(job.Path) {
			return []loader.BookFile{newBookFile(job, job.Path, l)}, nil
		}
		paths, err := ioloader.ListTextFiles(job.Path)
		if err != nil {
			return nil, err
		}
		var files []loader.BookFile
		for _, path := range paths {
			files = append(files, newBookFile(job, path, l))
		}
		return files, nil
	}
}

func newBookFile(job IngestJob, path string, l loader.BookFileLoader) loader.BookFile {
	id := makeBookID(path)
	title := job.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	language := job.Language
	if language == "" {
		language = "en"
	}
	return loader.NewBookFile(loader.NewBookFileParams{
		ID:          id,
		FilePath:    path,
		Title:       title,
		Author:      job.Author,
		Year:        job.Year,
		Perspective: job.Perspective,
		Language:    language,
		Loader:      l,
	})
}

func hasTextExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".txt" || ext == ".md"
}

// makeBookID turns a file path into a stable slug used as the source ID, so
// re-ingesting the same file merges instead of duplicating.
func makeBookID(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(base) {
		switch {
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
