package store

import (
	"context"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/common"
)

// GraphStorage defines the interface for persisting and querying the
// narrative knowledge graph. Write operations carry merge semantics (upserts)
// so that repeated sequential ingestion is naturally idempotent; raw inserts
// are deliberately not exposed. Read operations back the retrieval strategies.
type GraphStorage interface {
	// SaveSource records a book/document. Created once per ingestion, never
	// mutated afterwards.
	SaveSource(ctx context.Context, source common.Source) error

	// SaveEpisode persists a text unit. Episodes are unique by construction
	// and are never merged.
	SaveEpisode(ctx context.Context, episode common.Episode) error

	// SaveEntities upserts entities, merging on (name, category). Attribute
	// fields follow last-write-wins; provenance tags are unioned.
	SaveEntities(ctx context.Context, entities []common.Entity) error

	// LinkMention records that an episode mentions an entity. Idempotent:
	// re-running on the same pair updates the context, nothing else.
	LinkMention(ctx context.Context, episodeID string, entityName string, mentionContext string) error

	// SaveRelationships upserts typed edges, merging on (from, to, type).
	// Missing endpoints are created with minimal attributes before the edge.
	SaveRelationships(ctx context.Context, relations []common.Relationship) error

	// SaveCanonicalEntity records an alias-resolution anchor and links the
	// given entity names to it via interprets-as edges.
	SaveCanonicalEntity(ctx context.Context, canonical common.CanonicalEntity, aliases []string) error

	// SearchEntities finds entities whose name matches the term
	// (case-insensitive substring).
	SearchEntities(ctx context.Context, term string, limit int) ([]common.Entity, error)

	// GetEntityRelations returns relationships where the named entity is
	// either endpoint.
	GetEntityRelations(ctx context.Context, entityName string, limit int) ([]common.Relationship, error)

	// SearchEntitiesByRole finds entities whose role field matches any of the
	// keywords (case-insensitive substring).
	SearchEntitiesByRole(ctx context.Context, keywords []string, limit int) ([]common.Entity, error)

	// SearchEpisodes finds episodes whose content contains the term, ordered
	// by chapter and sequence for narrative coherence.
	SearchEpisodes(ctx context.Context, term string, limit int) ([]common.Episode, error)

	// SearchSimilarEntities finds entities semantically close to the question
	// via embedding similarity. Backends without a vector index return nothing.
	SearchSimilarEntities(ctx context.Context, question string, limit int) ([]common.Entity, error)

	// SearchSimilarEpisodes finds episodes semantically close to the question
	// via embedding similarity. Backends without a vector index return nothing.
	SearchSimilarEpisodes(ctx context.Context, question string, limit int) ([]common.Episode, error)

	// SearchEvents finds EVENT-category entities whose name or significance
	// matches the term.
	SearchEvents(ctx context.Context, term string, limit int) ([]common.Entity, error)

	// CountEntities reports the total number of entities in the graph.
	CountEntities(ctx context.Context) (int64, error)

	// ListEntityNames returns up to limit known entity names, most connected
	// first where the backend can rank them.
	ListEntityNames(ctx context.Context, limit int) ([]string, error)
}
