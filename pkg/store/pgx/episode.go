package pgx

import (
	"context"

	"github.com/41rumble/great-fire-smyrna-rag/internal/util"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/common"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/logger"

	"github.com/pgvector/pgvector-go"
)

// SaveSource persists the source record. Re-saving the same ID overwrites the
// attribute fields.
func (s *GraphDBStorage) SaveSource(ctx context.Context, source common.Source) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	_, err := s.conn.Exec(ctx, `
		INSERT INTO sources (id, title, author, year, perspective, language)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			author = EXCLUDED.author,
			year = EXCLUDED.year,
			perspective = EXCLUDED.perspective,
			language = EXCLUDED.language
	`, source.ID, source.Title, source.Author, source.Year, source.Perspective, source.Language)
	return err
}

// SaveEpisode persists one text unit with its content embedding.
func (s *GraphDBStorage) SaveEpisode(ctx context.Context, episode common.Episode) error {
	content := util.SanitizePostgresText(episode.Content)

	logger.Debug("[Store][SaveEpisode] Generating episode embedding", "episode", episode.ID)
	embedding, err := s.aiClient.GenerateEmbedding(ctx, []byte(content))
	if err != nil {
		return err
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO episodes (id, name, source_id, chapter_number, chapter_title, sequence, content, word_count, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			word_count = EXCLUDED.word_count,
			embedding = EXCLUDED.embedding
	`,
		episode.ID,
		episode.Name,
		episode.SourceID,
		episode.Chapter.Number,
		episode.Chapter.Title,
		episode.Sequence,
		content,
		episode.WordCount,
		pgvector.NewVector(embedding),
	)
	return err
}

// SearchEpisodes finds episodes whose content contains the term, ordered by
// chapter and sequence so excerpts read in narrative order.
func (s *GraphDBStorage) SearchEpisodes(ctx context.Context, term string, limit int) ([]common.Episode, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, name, source_id, chapter_number, chapter_title, sequence, content, word_count
		FROM episodes
		WHERE content ILIKE '%' || $1 || '%'
		ORDER BY chapter_number, sequence
		LIMIT $2
	`, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var episodes []common.Episode
	for rows.Next() {
		var ep common.Episode
		if err := rows.Scan(
			&ep.ID,
			&ep.Name,
			&ep.SourceID,
			&ep.Chapter.Number,
			&ep.Chapter.Title,
			&ep.Sequence,
			&ep.Content,
			&ep.WordCount,
		); err != nil {
			return nil, err
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

// SearchSimilarEpisodes finds episodes by vector similarity to the question
// embedding. Used when substring search over content comes up empty.
func (s *GraphDBStorage) SearchSimilarEpisodes(ctx context.Context, question string, limit int) ([]common.Episode, error) {
	embedding, err := s.aiClient.GenerateEmbedding(ctx, []byte(question))
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.Query(ctx, `
		SELECT id, name, source_id, chapter_number, chapter_title, sequence, content, word_count
		FROM episodes
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var episodes []common.Episode
	for rows.Next() {
		var ep common.Episode
		if err := rows.Scan(
			&ep.ID,
			&ep.Name,
			&ep.SourceID,
			&ep.Chapter.Number,
			&ep.Chapter.Title,
			&ep.Sequence,
			&ep.Content,
			&ep.WordCount,
		); err != nil {
			return nil, err
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}
