package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/common"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/store"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type entityKey struct {
	name     string
	category common.EntityCategory
}

type relationKey struct {
	from string
	to   string
	typ  common.RelationType
}

type mention struct {
	episodeID  string
	entityName string
	context    string
}

// MemoryGraphStorage is an in-memory GraphStorage implementation. It mirrors
// the merge semantics of the database-backed store and is used in tests and
// for single-process experiments without a database.
type MemoryGraphStorage struct {
	mu sync.RWMutex

	sources    map[string]common.Source
	episodes   []common.Episode
	episodeIdx map[string]int
	entities   map[entityKey]*common.Entity
	relations  map[relationKey]*common.Relationship
	mentions   map[string]mention
	canonical  map[string]common.CanonicalEntity
	aliases    map[string]string
}

// NewMemoryGraphStorage creates an empty in-memory graph store.
func NewMemoryGraphStorage() *MemoryGraphStorage {
	return &MemoryGraphStorage{
		sources:    make(map[string]common.Source),
		episodeIdx: make(map[string]int),
		entities:   make(map[entityKey]*common.Entity),
		relations:  make(map[relationKey]*common.Relationship),
		mentions:   make(map[string]mention),
		canonical:  make(map[string]common.CanonicalEntity),
		aliases:    make(map[string]string),
	}
}

// SaveSource stores the source record, overwriting any previous record with
// the same ID.
func (s *MemoryGraphStorage) SaveSource(ctx context.Context, source common.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[source.ID] = source
	return nil
}

// SaveEpisode appends an episode, replacing an existing one with the same ID.
func (s *MemoryGraphStorage) SaveEpisode(ctx context.Context, episode common.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.episodeIdx[episode.ID]; ok {
		s.episodes[idx] = episode
		return nil
	}
	s.episodeIdx[episode.ID] = len(s.episodes)
	s.episodes = append(s.episodes, episode)
	return nil
}

// SaveEntities merges the given entities into the graph on (name, category).
func (s *MemoryGraphStorage) SaveEntities(ctx context.Context, entities []common.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entities {
		s.mergeEntityLocked(e)
	}
	return nil
}

func (s *MemoryGraphStorage) mergeEntityLocked(e common.Entity) *common.Entity {
	key := entityKey{name: e.Name, category: e.Category}
	existing, ok := s.entities[key]
	if !ok {
		if e.ID == "" {
			e.ID = gonanoid.Must()
		}
		copied := e
		copied.Sources = dedupe(e.Sources)
		s.entities[key] = &copied
		return s.entities[key]
	}
	if e.Role != "" {
		existing.Role = e.Role
	}
	if e.Significance != "" {
		existing.Significance = e.Significance
	}
	existing.Sources = dedupe(append(existing.Sources, e.Sources...))
	return existing
}

// LinkMention records that an episode mentions an entity. Re-linking the same
// pair only updates the stored context.
func (s *MemoryGraphStorage) LinkMention(ctx context.Context, episodeID string, entityName string, mentionContext string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := episodeID + "\x00" + entityName
	s.mentions[key] = mention{episodeID: episodeID, entityName: entityName, context: mentionContext}
	return nil
}

// SaveRelationships merges edges on (from, to, type), creating any missing
// endpoint entities first so the graph never holds a dangling edge.
func (s *MemoryGraphStorage) SaveRelationships(ctx context.Context, relations []common.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range relations {
		s.ensureEndpointLocked(r.From)
		s.ensureEndpointLocked(r.To)

		key := relationKey{from: r.From, to: r.To, typ: r.Type}
		existing, ok := s.relations[key]
		if !ok {
			if r.ID == "" {
				r.ID = gonanoid.Must()
			}
			copied := r
			copied.Sources = dedupe(r.Sources)
			s.relations[key] = &copied
			continue
		}
		if r.Context != "" {
			existing.Context = r.Context
		}
		existing.Sources = dedupe(append(existing.Sources, r.Sources...))
	}
	return nil
}

func (s *MemoryGraphStorage) ensureEndpointLocked(name string) {
	for key := range s.entities {
		if key.name == name {
			return
		}
	}
	// endpoint unseen as an entity yet, create a minimal PERSON placeholder
	s.mergeEntityLocked(common.Entity{Name: name, Category: common.CategoryPerson})
}

// SaveCanonicalEntity stores the canonical anchor and maps the given aliases
// to it.
func (s *MemoryGraphStorage) SaveCanonicalEntity(ctx context.Context, canonical common.CanonicalEntity, aliases []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if canonical.ID == "" {
		canonical.ID = gonanoid.Must()
	}
	s.canonical[canonical.Name] = canonical
	for _, alias := range aliases {
		s.aliases[alias] = canonical.Name
	}
	return nil
}

// SearchEntities returns entities whose name contains the term,
// case-insensitively and across accent variants.
func (s *MemoryGraphStorage) SearchEntities(ctx context.Context, term string, limit int) ([]common.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := store.FoldAccents(strings.ToLower(term))
	var out []common.Entity
	for _, e := range s.sortedEntitiesLocked() {
		if strings.Contains(store.FoldAccents(strings.ToLower(e.Name)), needle) {
			out = append(out, *e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// GetEntityRelations returns relationships where the named entity appears as
// either endpoint.
func (s *MemoryGraphStorage) GetEntityRelations(ctx context.Context, entityName string, limit int) ([]common.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []common.Relationship
	for _, r := range s.sortedRelationsLocked() {
		if r.From == entityName || r.To == entityName {
			out = append(out, *r)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// SearchEntitiesByRole returns entities whose role matches any keyword.
func (s *MemoryGraphStorage) SearchEntitiesByRole(ctx context.Context, keywords []string, limit int) ([]common.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []common.Entity
	for _, e := range s.sortedEntitiesLocked() {
		role := strings.ToLower(e.Role)
		for _, kw := range keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(role, strings.ToLower(kw)) {
				out = append(out, *e)
				break
			}
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// SearchEpisodes returns episodes whose content contains the term, in
// narrative order.
func (s *MemoryGraphStorage) SearchEpisodes(ctx context.Context, term string, limit int) ([]common.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(term)
	matched := make([]common.Episode, 0)
	for _, ep := range s.episodes {
		if strings.Contains(strings.ToLower(ep.Content), needle) {
			matched = append(matched, ep)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Chapter.Number != matched[j].Chapter.Number {
			return matched[i].Chapter.Number < matched[j].Chapter.Number
		}
		return matched[i].Sequence < matched[j].Sequence
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// SearchSimilarEntities returns nothing: the in-memory store keeps no vector
// index, so similarity fallback is a no-op here.
func (s *MemoryGraphStorage) SearchSimilarEntities(ctx context.Context, question string, limit int) ([]common.Entity, error) {
	return nil, nil
}

// SearchSimilarEpisodes returns nothing, matching SearchSimilarEntities.
func (s *MemoryGraphStorage) SearchSimilarEpisodes(ctx context.Context, question string, limit int) ([]common.Episode, error) {
	return nil, nil
}

// SearchEvents returns EVENT entities whose name or significance matches the
// term.
func (s *MemoryGraphStorage) SearchEvents(ctx context.Context, term string, limit int) ([]common.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(term)
	var out []common.Entity
	for _, e := range s.sortedEntitiesLocked() {
		if e.Category != common.CategoryEvent {
			continue
		}
		if strings.Contains(strings.ToLower(e.Name), needle) ||
			strings.Contains(strings.ToLower(e.Significance), needle) {
			out = append(out, *e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// CountEntities reports the number of stored entities.
func (s *MemoryGraphStorage) CountEntities(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entities)), nil
}

// ListEntityNames returns entity names ordered by degree (relationship count),
// most connected first.
func (s *MemoryGraphStorage) ListEntityNames(ctx context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	degree := make(map[string]int, len(s.entities))
	for _, r := range s.relations {
		degree[r.From]++
		degree[r.To]++
	}

	names := make([]string, 0, len(s.entities))
	for key := range s.entities {
		names = append(names, key.name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		if degree[names[i]] != degree[names[j]] {
			return degree[names[i]] > degree[names[j]]
		}
		return names[i] < names[j]
	})
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

// ResolveAlias returns the canonical name an alias maps to, if any.
func (s *MemoryGraphStorage) ResolveAlias(alias string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.aliases[alias]
	return name, ok
}

// MentionCount reports how many episode-entity mention links exist. Exposed
// for tests and ingest reporting.
func (s *MemoryGraphStorage) MentionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mentions)
}

// RelationCount reports the number of stored relationships.
func (s *MemoryGraphStorage) RelationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.relations)
}

func (s *MemoryGraphStorage) sortedEntitiesLocked() []*common.Entity {
	out := make([]*common.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func (s *MemoryGraphStorage) sortedRelationsLocked() []*common.Relationship {
	out := make([]*common.Relationship, 0, len(s.relations))
	for _, r := range s.relations {
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return out[i].Type < out[j].Type
	})
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
