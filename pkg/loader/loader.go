package loader

import (
	"context"
	"fmt"
)

// BookFile represents a plain-text document that can be chunked into episodes
// for graph construction, together with the bibliographic metadata that
// becomes the graph's Source record.
//
// The actual file content is retrieved via the associated BookFileLoader.
type BookFile struct {
	ID          string
	FilePath    string
	Title       string
	Author      string
	Year        int
	Perspective string
	Language    string
	Loader      BookFileLoader
}

// NewBookFileParams defines the input parameters for creating a new BookFile.
type NewBookFileParams struct {
	ID          string
	FilePath    string
	Title       string
	Author      string
	Year        int
	Perspective string
	Language    string
	Loader      BookFileLoader
}

// NewBookFile creates a BookFile from the provided parameters.
func NewBookFile(params NewBookFileParams) BookFile {
	return BookFile{
		ID:          params.ID,
		FilePath:    params.FilePath,
		Title:       params.Title,
		Author:      params.Author,
		Year:        params.Year,
		Perspective: params.Perspective,
		Language:    params.Language,
		Loader:      params.Loader,
	}
}

// GetText retrieves the raw text content of the file using its Loader.
//
// Example:
//
//	text, err := file.GetText(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(string(text))
func (f *BookFile) GetText(ctx context.Context) ([]byte, error) {
	return f.Loader.GetFileText(ctx, *f)
}

// CacheKey returns a stable cache key for a file's content.
func CacheKey(file BookFile) string {
	return fmt.Sprintf("%s:%s", file.ID, file.FilePath)
}

// BookFileLoader defines the interface for loading the contents of a BookFile.
// Implementations may load files from disk, object storage, or the web.
type BookFileLoader interface {
	GetFileText(ctx context.Context, file BookFile) ([]byte, error)
}
