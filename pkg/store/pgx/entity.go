package pgx

import (
	"context"

	"github.com/41rumble/great-fire-smyrna-rag/internal/util"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/common"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/logger"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/store"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pgvector/pgvector-go"
)

const entityChunkSize = 250

// SaveEntities upserts a batch of entities, merging on (name, category).
// Attribute fields follow last-write-wins, provenance tags are unioned, and
// each entity gets an embedding of its role and significance for semantic
// lookup.
func (s *GraphDBStorage) SaveEntities(ctx context.Context, entities []common.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	return store.ChunkRange(len(entities), entityChunkSize, func(start, end int) error {
		chunk := entities[start:end]

		inputs := make([][]byte, len(chunk))
		for i, e := range chunk {
			inputs[i] = []byte(util.SanitizePostgresText(e.Name + ". " + e.Role + ". " + e.Significance))
		}
		logger.Debug("[Store][SaveEntities] Generating entity embeddings", "count", len(inputs))
		embeddings, err := store.GenerateEmbeddings(ctx, s.aiClient, inputs)
		if err != nil {
			return err
		}

		s.dbLock.Lock()
		defer s.dbLock.Unlock()

		tx, err := s.conn.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		for i, e := range chunk {
			if e.ID == "" {
				e.ID = gonanoid.Must()
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO entities (id, name, category, role, significance, sources, embedding)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (name, category) DO UPDATE SET
					role = CASE WHEN EXCLUDED.role <> '' THEN EXCLUDED.role ELSE entities.role END,
					significance = CASE WHEN EXCLUDED.significance <> '' THEN EXCLUDED.significance ELSE entities.significance END,
					sources = (
						SELECT ARRAY(SELECT DISTINCT unnest(entities.sources || EXCLUDED.sources))
					),
					embedding = EXCLUDED.embedding
			`,
				e.ID,
				e.Name,
				string(e.Category),
				util.SanitizePostgresText(e.Role),
				util.SanitizePostgresText(e.Significance),
				store.DedupeStrings(e.Sources),
				pgvector.NewVector(embeddings[i]),
			)
			if err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	})
}

// LinkMention records that an episode mentions an entity. Re-linking the same
// pair only refreshes the stored context.
func (s *GraphDBStorage) LinkMention(ctx context.Context, episodeID string, entityName string, mentionContext string) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	_, err := s.conn.Exec(ctx, `
		INSERT INTO mentions (episode_id, entity_name, context)
		VALUES ($1, $2, $3)
		ON CONFLICT (episode_id, entity_name) DO UPDATE SET
			context = EXCLUDED.context
	`, episodeID, entityName, util.SanitizePostgresText(mentionContext))
	return err
}

// SaveCanonicalEntity records an alias-resolution anchor and links each alias
// to it.
func (s *GraphDBStorage) SaveCanonicalEntity(ctx context.Context, canonical common.CanonicalEntity, aliases []string) error {
	if canonical.ID == "" {
		canonical.ID = gonanoid.Must()
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO canonical_entities (id, name, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET category = EXCLUDED.category
	`, canonical.ID, canonical.Name, string(canonical.Category))
	if err != nil {
		return err
	}

	for _, alias := range aliases {
		_, err = tx.Exec(ctx, `
			INSERT INTO entity_aliases (alias, canonical_name)
			VALUES ($1, $2)
			ON CONFLICT (alias) DO UPDATE SET canonical_name = EXCLUDED.canonical_name
		`, alias, canonical.Name)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// SearchEntities finds entities by case-insensitive name substring, matching
// across accent variants ("Pasa" finds "Paşa").
func (s *GraphDBStorage) SearchEntities(ctx context.Context, term string, limit int) ([]common.Entity, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, name, category, role, significance, sources
		FROM entities
		WHERE unaccent(name) ILIKE unaccent('%' || $1 || '%')
		ORDER BY name
		LIMIT $2
	`, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntities(rows)
}

// SearchSimilarEntities finds entities by vector similarity to the question
// embedding. Used when substring search over names comes up empty.
func (s *GraphDBStorage) SearchSimilarEntities(ctx context.Context, question string, limit int) ([]common.Entity, error) {
	embedding, err := s.aiClient.GenerateEmbedding(ctx, []byte(question))
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.Query(ctx, `
		SELECT id, name, category, role, significance, sources
		FROM entities
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntities(rows)
}

// SearchEntitiesByRole finds entities whose role matches any of the keywords.
func (s *GraphDBStorage) SearchEntitiesByRole(ctx context.Context, keywords []string, limit int) ([]common.Entity, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT id, name, category, role, significance, sources
		FROM entities
		WHERE EXISTS (
			SELECT 1 FROM unnest($1::text[]) AS kw
			WHERE role ILIKE '%' || kw || '%'
		)
		ORDER BY name
		LIMIT $2
	`, keywords, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntities(rows)
}

// SearchEvents finds EVENT entities whose name or significance matches the
// term.
func (s *GraphDBStorage) SearchEvents(ctx context.Context, term string, limit int) ([]common.Entity, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, name, category, role, significance, sources
		FROM entities
		WHERE category = 'EVENT'
		  AND (name ILIKE '%' || $1 || '%' OR significance ILIKE '%' || $1 || '%')
		ORDER BY name
		LIMIT $2
	`, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntities(rows)
}

// CountEntities reports the total number of entities.
func (s *GraphDBStorage) CountEntities(ctx context.Context) (int64, error) {
	var count int64
	err := s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM entities`).Scan(&count)
	return count, err
}

// ListEntityNames returns entity names ranked by relationship degree, most
// connected first.
func (s *GraphDBStorage) ListEntityNames(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT e.name
		FROM entities e
		LEFT JOIN (
			SELECT name, COUNT(*) AS degree FROM (
				SELECT from_entity AS name FROM relationships
				UNION ALL
				SELECT to_entity AS name FROM relationships
			) endpoints
			GROUP BY name
		) d ON d.name = e.name
		ORDER BY COALESCE(d.degree, 0) DESC, e.name
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

type entityRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEntities(rows entityRows) ([]common.Entity, error) {
	var entities []common.Entity
	for rows.Next() {
		var e common.Entity
		var category string
		if err := rows.Scan(&e.ID, &e.Name, &category, &e.Role, &e.Significance, &e.Sources); err != nil {
			return nil, err
		}
		e.Category = common.EntityCategory(category)
		entities = append(entities, e)
	}
	return entities, rows.Err()
}
