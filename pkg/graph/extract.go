package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/ai"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/common"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/logger"

	"github.com/pkoukk/tiktoken-go"
)

type extractEntity struct {
	Name         string `json:"name" jsonschema_description:"Name of the entity as the narrative most commonly renders it, without honorifics"`
	Category     string `json:"category" jsonschema_description:"One of the provided entity categories"`
	Role         string `json:"role" jsonschema_description:"The entity's role, nationality or function in the narrative, one short phrase"`
	Significance string `json:"significance" jsonschema_description:"Why this entity matters in this passage, grounded in what the text says"`
}

type entityExtractResponse struct {
	Entities []extractEntity `json:"entities" jsonschema_description:"Entities identified in the passage"`
}

type extractRelationship struct {
	From    string `json:"from" jsonschema_description:"Name of the source entity, from the provided entity list"`
	To      string `json:"to" jsonschema_description:"Name of the target entity, from the provided entity list"`
	Type    string `json:"type" jsonschema_description:"Exactly one of the allowed relationship types"`
	Context string `json:"context" jsonschema_description:"Evidence from the passage supporting the relationship, quoted or closely paraphrased"`
}

type relationshipExtractResponse struct {
	Relationships []extractRelationship `json:"relationships" jsonschema_description:"Directed relationships between the listed entities"`
}

// extractFromEpisode runs the two-pass structured extraction over one
// episode: entities first, then relationships constrained to the entities the
// first pass found. Relationship types outside the closed vocabulary are
// coerced to RELATED_TO, edges with unknown endpoints are dropped.
func (c *NarrativeGraphClient) extractFromEpisode(
	ctx context.Context,
	episode common.Episode,
	source common.Source,
) ([]common.Entity, []common.Relationship, error) {
	categories := make([]string, len(common.EntityCategories))
	for i, cat := range common.EntityCategories {
		categories[i] = string(cat)
	}
	categoryList := strings.Join(categories, ",")

	episodeContext := fmt.Sprintf("%q by %s, chapter %d", source.Title, source.Author, episode.Chapter.Number)
	if episode.Chapter.Title != "" {
		episodeContext += fmt.Sprintf(" (%s)", episode.Chapter.Title)
	}

	entityPrompt := fmt.Sprintf(ai.EntityExtractPrompt, categoryList, episodeContext, categoryList)

	content, err := truncateToTokens(episode.Content, c.maxPromptTokens)
	if err != nil {
		return nil, nil, err
	}
	if content != episode.Content {
		logger.Warn("[Graph][Extract] Episode truncated to token budget",
			"episode", episode.ID, "budget", c.maxPromptTokens)
	}
	episode.Content = content

	var entityRes entityExtractResponse
	err = c.aiClient.GenerateCompletionWithFormat(
		ctx,
		"extract_entities",
		"Extract named entities from a passage of historical narrative.",
		episode.Content,
		&entityRes,
		ai.WithSystemPrompts(entityPrompt),
	)
	if err != nil {
		return nil, nil, err
	}

	entities := make([]common.Entity, 0, len(entityRes.Entities))
	names := make([]string, 0, len(entityRes.Entities))
	seen := make(map[string]struct{})
	for _, e := range entityRes.Entities {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		category, ok := common.ParseEntityCategory(e.Category)
		if !ok {
			logger.Debug("[Graph][Extract] Dropping entity with unknown category", "name", name, "category", e.Category)
			continue
		}
		key := strings.ToLower(name) + "|" + string(category)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		entities = append(entities, common.Entity{
			Name:         name,
			Category:     category,
			Role:         strings.TrimSpace(e.Role),
			Significance: strings.TrimSpace(e.Significance),
			Sources:      []string{source.ID},
		})
		names = append(names, name)
	}

	if len(entities) == 0 {
		return nil, nil, nil
	}

	relationPrompt := fmt.Sprintf(
		ai.RelationshipExtractPrompt,
		formatRelationVocabulary(),
		strings.Join(names, ", "),
		c.maxRelationships,
	)

	var relationRes relationshipExtractResponse
	err = c.aiClient.GenerateCompletionWithFormat(
		ctx,
		"extract_relationships",
		"Extract directed relationships between already-identified entities.",
		episode.Content,
		&relationRes,
		ai.WithSystemPrompts(relationPrompt),
	)
	if err != nil {
		// entities from the first pass are still worth keeping
		logger.Warn("[Graph][Extract] Relationship pass failed", "episode", episode.ID, "err", err)
		return entities, nil, nil
	}

	known := make(map[string]string, len(names))
	for _, name := range names {
		known[strings.ToLower(name)] = name
	}

	relations := make([]common.Relationship, 0, len(relationRes.Relationships))
	for _, r := range relationRes.Relationships {
		if len(relations) >= c.maxRelationships {
			break
		}
		from, okFrom := known[strings.ToLower(strings.TrimSpace(r.From))]
		to, okTo := known[strings.ToLower(strings.TrimSpace(r.To))]
		if !okFrom || !okTo || from == to {
			continue
		}
		relType, ok := common.ParseRelationType(r.Type)
		if !ok {
			logger.Debug("[Graph][Extract] Coercing unknown relationship type", "type", r.Type)
		}
		relations = append(relations, common.Relationship{
			From:    from,
			To:      to,
			Type:    relType,
			Context: strings.TrimSpace(r.Context),
			Sources: []string{source.ID},
		})
	}

	return entities, relations, nil
}

// truncateToTokens cuts a text down to the given token budget.
func truncateToTokens(text string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		return text, nil
	}
	// every token spans at least one byte, so short texts never need encoding
	if len(text) <= maxTokens {
		return text, nil
	}
	enc, err := tiktoken.GetEncoding(promptEncoder)
	if err != nil {
		return "", err
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, nil
	}
	return enc.Decode(tokens[:maxTokens]), nil
}

// formatRelationVocabulary renders the closed relationship vocabulary grouped
// by category, in a stable order for prompt caching.
func formatRelationVocabulary() string {
	grouped := common.RelationTypeNames()
	categories := make([]string, 0, len(grouped))
	for category := range grouped {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var b strings.Builder
	for _, category := range categories {
		types := grouped[category]
		sort.Strings(types)
		fmt.Fprintf(&b, "- %s: %s\n", category, strings.Join(types, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
