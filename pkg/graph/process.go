package graph

import (
	"context"
	"strings"
	"time"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/common"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/loader"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/logger"
)

// ProcessReport summarizes one book ingestion run.
type ProcessReport struct {
	SourceID      string `json:"source_id"`
	Chapters      int    `json:"chapters"`
	Episodes      int    `json:"episodes"`
	Entities      int    `json:"entities"`
	Relationships int    `json:"relationships"`
	Fallbacks     int    `json:"fallbacks"`
}

// ProcessBook runs the full ingestion pipeline for one book: load the text,
// chunk it into episodes, extract entities and relationships from each
// episode and merge everything into the graph store. Episodes are processed
// sequentially in narrative order; a failed extraction degrades to pattern
// matching instead of aborting the book.
func (c *NarrativeGraphClient) ProcessBook(ctx context.Context, file loader.BookFile) (*ProcessReport, error) {
	textBytes, err := file.GetText(ctx)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(string(textBytes))
	if text == "" {
		logger.Warn("[Graph][ProcessBook] Book is empty", "file", file.ID)
		return &ProcessReport{SourceID: file.ID}, nil
	}

	source := common.Source{
		ID:          file.ID,
		Title:       file.Title,
		Author:      file.Author,
		Year:        file.Year,
		Perspective: file.Perspective,
		Language:    file.Language,
	}
	if err := c.storage.SaveSource(ctx, source); err != nil {
		return nil, err
	}

	episodes := transformIntoEpisodes(source.ID, text, c.targetWords)
	logger.Info("[Graph][ProcessBook] Chunked book", "file", file.ID, "episodes", len(episodes))

	report := &ProcessReport{SourceID: source.ID, Episodes: len(episodes)}
	chapters := make(map[int]struct{})

	for i, episode := range episodes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		chapters[episode.Chapter.Number] = struct{}{}

		if i > 0 && c.chunkDelay > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(c.chunkDelay):
			}
		}

		if err := c.storage.SaveEpisode(ctx, episode); err != nil {
			return report, err
		}

		entities, relations, err := c.extractFromEpisode(ctx, episode, source)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			logger.Warn("[Graph][ProcessBook] Extraction failed, using pattern fallback",
				"episode", episode.ID, "err", err)
			entities = extractEntitiesByPattern(episode.Content, source.ID)
			relations = nil
			report.Fallbacks++
		}

		entities = mergeEntities(entities)
		relations = mergeRelationships(relations)

		if err := c.storage.SaveEntities(ctx, entities); err != nil {
			return report, err
		}
		for _, entity := range entities {
			mentionContext := entity.Significance
			if mentionContext == "" {
				mentionContext = entity.Role
			}
			if err := c.storage.LinkMention(ctx, episode.ID, entity.Name, mentionContext); err != nil {
				return report, err
			}
		}
		if err := c.storage.SaveRelationships(ctx, relations); err != nil {
			return report, err
		}

		report.Entities += len(entities)
		report.Relationships += len(relations)

		logger.Debug("[Graph][ProcessBook] Processed episode",
			"episode", episode.ID,
			"entities", len(entities),
			"relationships", len(relations))
	}

	report.Chapters = len(chapters)
	logger.Info("[Graph][ProcessBook] Finished book",
		"file", file.ID,
		"chapters", report.Chapters,
		"episodes", report.Episodes,
		"entities", report.Entities,
		"relationships", report.Relationships,
		"fallbacks", report.Fallbacks)

	return report, nil
}
