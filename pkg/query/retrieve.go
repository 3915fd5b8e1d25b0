package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/common"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/logger"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/store"
)

// NoInformationFound is the sentinel returned when no retrieval strategy
// produced any context. It short-circuits synthesis.
const NoInformationFound = "no information found"

const (
	maxEntitiesPerTerm     = 5
	maxRelationsPerProfile = 10
	maxEpisodesPerTerm     = 3
	maxExcerptChars        = 1000
	maxContextBlocks       = 24
	entityLexiconSize      = 200
)

var questionStopwords = map[string]struct{}{
	"the": {}, "and": {}, "that": {}, "this": {}, "with": {}, "from": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "whom": {}, "whose": {},
	"who": {}, "how": {}, "why": {}, "did": {}, "does": {}, "was": {},
	"were": {}, "have": {}, "has": {}, "had": {}, "about": {}, "tell": {},
	"describe": {}, "explain": {}, "their": {}, "there": {}, "they": {},
	"them": {}, "then": {}, "than": {}, "into": {}, "during": {}, "after": {},
	"before": {}, "between": {}, "happen": {}, "happened": {}, "role": {},
	"story": {}, "book": {}, "narrative": {}, "relationship": {}, "could": {},
	"would": {}, "should": {}, "over": {}, "under": {}, "most": {}, "some": {},
	"many": {}, "much": {}, "other": {}, "these": {}, "those": {},
}

// groupKeywords broadens retrieval for questions about groups of people whose
// members are stored under individual names with descriptive roles.
var groupKeywords = map[string][]string{
	"refugee":   {"refugee"},
	"refugees":  {"refugee"},
	"american":  {"american"},
	"americans": {"american"},
	"greek":     {"greek"},
	"greeks":    {"greek"},
	"turk":      {"turkish", "turk"},
	"turks":     {"turkish", "turk"},
	"armenian":  {"armenian"},
	"armenians": {"armenian"},
	"sailor":    {"sailor", "navy"},
	"sailors":   {"sailor", "navy"},
	"soldier":   {"soldier", "army"},
	"soldiers":  {"soldier", "army"},
	"officer":   {"officer", "commander"},
	"officers":  {"officer", "commander"},
	"official":  {"official"},
	"officials": {"official"},
	"journalist": {"journalist", "correspondent"},
	"missionary": {"missionary"},
	"doctor":     {"doctor", "physician"},
}

// RetrievedContext is the raw material retrieval hands to compression and
// synthesis. Profile blocks always precede excerpt blocks in the assembled
// context.
type RetrievedContext struct {
	Profiles []string
	Excerpts []string
	Entities []string
}

// Empty reports whether no strategy produced anything.
func (r *RetrievedContext) Empty() bool {
	return len(r.Profiles) == 0 && len(r.Excerpts) == 0
}

// Assemble renders the retrieved blocks into the context string handed to the
// model, entity profiles first.
func (r *RetrievedContext) Assemble() string {
	if r.Empty() {
		return NoInformationFound
	}

	var b strings.Builder
	if len(r.Profiles) > 0 {
		b.WriteString("KEY PEOPLE AND PLACES:\n\n")
		b.WriteString(strings.Join(r.Profiles, "\n\n"))
	}
	if len(r.Excerpts) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("RELEVANT PASSAGES:\n\n")
		b.WriteString(strings.Join(r.Excerpts, "\n\n"))
	}
	return b.String()
}

// deriveSearchTerms extracts retrieval terms from the question: names from
// the known-entity lexicon matched against the question first, then remaining
// significant words.
func deriveSearchTerms(ctx context.Context, storage store.GraphStorage, question string) []string {
	lowerQuestion := strings.ToLower(question)

	var terms []string
	seen := make(map[string]struct{})
	add := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			return
		}
		if _, dup := seen[term]; dup {
			return
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}

	names, err := storage.ListEntityNames(ctx, entityLexiconSize)
	if err != nil {
		logger.Warn("[Query][Retrieve] Entity lexicon unavailable", "err", err)
	}
	for _, name := range names {
		if strings.Contains(lowerQuestion, strings.ToLower(name)) {
			add(name)
		}
	}

	for _, word := range strings.FieldsFunc(lowerQuestion, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	}) {
		word = strings.Trim(word, "'")
		if len(word) <= 3 {
			continue
		}
		if _, stop := questionStopwords[word]; stop {
			continue
		}
		add(word)
	}

	return terms
}

// Retrieve runs the retrieval strategies for a question against the store and
// returns the collected context blocks.
func Retrieve(ctx context.Context, storage store.GraphStorage, question string) (*RetrievedContext, error) {
	terms := deriveSearchTerms(ctx, storage, question)
	logger.Debug("[Query][Retrieve] Derived search terms", "terms", terms)

	result := &RetrievedContext{}
	seenBlocks := make(map[string]struct{})
	seenEntities := make(map[string]struct{})

	addProfile := func(block string) {
		if len(result.Profiles)+len(result.Excerpts) >= maxContextBlocks {
			return
		}
		if _, dup := seenBlocks[block]; dup {
			return
		}
		seenBlocks[block] = struct{}{}
		result.Profiles = append(result.Profiles, block)
	}
	addExcerpt := func(block string) {
		if len(result.Profiles)+len(result.Excerpts) >= maxContextBlocks {
			return
		}
		if _, dup := seenBlocks[block]; dup {
			return
		}
		seenBlocks[block] = struct{}{}
		result.Excerpts = append(result.Excerpts, block)
	}
	noteEntity := func(name string) {
		key := strings.ToLower(name)
		if _, dup := seenEntities[key]; dup {
			return
		}
		seenEntities[key] = struct{}{}
		result.Entities = append(result.Entities, name)
	}

	// strategy A: direct entity profiles
	for _, term := range terms {
		entities, err := storage.SearchEntities(ctx, term, maxEntitiesPerTerm)
		if err != nil {
			return nil, err
		}
		for _, entity := range entities {
			profile, err := buildEntityProfile(ctx, storage, entity)
			if err != nil {
				return nil, err
			}
			addProfile(profile)
			noteEntity(entity.Name)
		}
	}

	// strategy B: role broadening for group questions
	var roleKeywords []string
	for _, term := range terms {
		if kws, ok := groupKeywords[term]; ok {
			roleKeywords = append(roleKeywords, kws...)
		}
	}
	if len(roleKeywords) > 0 {
		entities, err := storage.SearchEntitiesByRole(ctx, roleKeywords, maxEntitiesPerTerm*2)
		if err != nil {
			return nil, err
		}
		for _, entity := range entities {
			profile, err := buildEntityProfile(ctx, storage, entity)
			if err != nil {
				return nil, err
			}
			addProfile(profile)
			noteEntity(entity.Name)
		}
	}

	// strategy C: episode content matches, in chapter order
	excerptNum := 1
	for _, term := range terms {
		episodes, err := storage.SearchEpisodes(ctx, term, maxEpisodesPerTerm)
		if err != nil {
			return nil, err
		}
		for _, episode := range episodes {
			content := episode.Content
			if len(content) > maxExcerptChars {
				content = truncate(content, maxExcerptChars) + "…"
			}
			addExcerpt(fmt.Sprintf("[Excerpt %d] (%s, chapter %d)\n%s",
				excerptNum, episode.Name, episode.Chapter.Number, content))
			excerptNum++
		}
	}

	// strategy D: event entities
	for _, term := range terms {
		events, err := storage.SearchEvents(ctx, term, maxEntitiesPerTerm)
		if err != nil {
			return nil, err
		}
		for _, event := range events {
			profile, err := buildEntityProfile(ctx, storage, event)
			if err != nil {
				return nil, err
			}
			addProfile(profile)
			noteEntity(event.Name)
		}
	}

	// vector similarity fallback when lexical search found nothing; a failure
	// here degrades retrieval, it never fails the query
	if len(result.Profiles) == 0 {
		similar, err := storage.SearchSimilarEntities(ctx, question, maxEntitiesPerTerm)
		if err != nil {
			logger.Warn("[Query][Retrieve] Entity similarity fallback failed", "err", err)
		}
		for _, entity := range similar {
			profile, err := buildEntityProfile(ctx, storage, entity)
			if err != nil {
				return nil, err
			}
			addProfile(profile)
			noteEntity(entity.Name)
		}
	}
	if len(result.Excerpts) == 0 {
		episodes, err := storage.SearchSimilarEpisodes(ctx, question, maxEpisodesPerTerm)
		if err != nil {
			logger.Warn("[Query][Retrieve] Episode similarity fallback failed", "err", err)
		}
		for _, episode := range episodes {
			content := episode.Content
			if len(content) > maxExcerptChars {
				content = truncate(content, maxExcerptChars) + "…"
			}
			addExcerpt(fmt.Sprintf("[Excerpt %d] (%s, chapter %d)\n%s",
				excerptNum, episode.Name, episode.Chapter.Number, content))
			excerptNum++
		}
	}

	return result, nil
}

func buildEntityProfile(ctx context.Context, storage store.GraphStorage, entity common.Entity) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s (%s)\n", entity.Name, entity.Category)
	if entity.Role != "" {
		fmt.Fprintf(&b, "Role: %s\n", entity.Role)
	}
	if entity.Significance != "" {
		fmt.Fprintf(&b, "Significance: %s\n", entity.Significance)
	}

	relations, err := storage.GetEntityRelations(ctx, entity.Name, maxRelationsPerProfile)
	if err != nil {
		return "", err
	}
	if len(relations) > 0 {
		b.WriteString("Relationships:\n")
		for _, r := range relations {
			fmt.Fprintf(&b, "- %s %s %s", r.From, r.Type, r.To)
			if r.Context != "" {
				fmt.Fprintf(&b, " (%s)", r.Context)
			}
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n"), nil
}
