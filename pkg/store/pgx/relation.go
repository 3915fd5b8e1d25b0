package pgx

import (
	"context"

	"github.com/41rumble/great-fire-smyrna-rag/internal/util"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/common"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/logger"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/store"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// SaveRelationships upserts typed edges, merging on (from, to, type). Missing
// endpoint entities are created first so the graph never holds a dangling
// edge, then the edges are written in a single transaction.
func (s *GraphDBStorage) SaveRelationships(ctx context.Context, relations []common.Relationship) error {
	if len(relations) == 0 {
		return nil
	}

	endpoints := make([]string, 0, len(relations)*2)
	for _, r := range relations {
		endpoints = append(endpoints, r.From, r.To)
	}
	endpoints = store.DedupeStrings(endpoints)

	logger.Debug("[Store][SaveRelationships] Ensuring endpoints", "count", len(endpoints))

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, name := range endpoints {
		// placeholder endpoint, filled in when the entity is extracted later
		_, err := tx.Exec(ctx, `
			INSERT INTO entities (id, name, category, role, significance, sources)
			VALUES ($1, $2, 'PERSON', '', '', '{}')
			ON CONFLICT (name, category) DO NOTHING
		`, gonanoid.Must(), name)
		if err != nil {
			return err
		}
	}

	for _, r := range relations {
		if r.ID == "" {
			r.ID = gonanoid.Must()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO relationships (id, from_entity, to_entity, type, context, sources)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (from_entity, to_entity, type) DO UPDATE SET
				context = CASE WHEN EXCLUDED.context <> '' THEN EXCLUDED.context ELSE relationships.context END,
				sources = (
					SELECT ARRAY(SELECT DISTINCT unnest(relationships.sources || EXCLUDED.sources))
				)
		`,
			r.ID,
			r.From,
			r.To,
			string(r.Type),
			util.SanitizePostgresText(r.Context),
			store.DedupeStrings(r.Sources),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetEntityRelations returns relationships where the named entity is either
// endpoint.
func (s *GraphDBStorage) GetEntityRelations(ctx context.Context, entityName string, limit int) ([]common.Relationship, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, from_entity, to_entity, type, context, sources
		FROM relationships
		WHERE from_entity = $1 OR to_entity = $1
		ORDER BY from_entity, to_entity, type
		LIMIT $2
	`, entityName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relations []common.Relationship
	for rows.Next() {
		var r common.Relationship
		var relType string
		if err := rows.Scan(&r.ID, &r.From, &r.To, &relType, &r.Context, &r.Sources); err != nil {
			return nil, err
		}
		r.Type = common.RelationType(relType)
		relations = append(relations, r)
	}
	return relations, rows.Err()
}
