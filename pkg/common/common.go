package common

// Source represents a book or document ingested into the knowledge graph.
// It is created once at ingestion start and never mutated.
type Source struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Year        int    `json:"year"`
	Perspective string `json:"perspective"`
	Language    string `json:"language"`
}

// Chapter is a structural subdivision of a Source, detected during chunking.
type Chapter struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	WordCount int    `json:"word_count"`
}

// Episode is a bounded unit of source text processed as one extraction unit.
// Episodes are created by the chunker and are read-only after creation. Each
// episode belongs to exactly one chapter and one source.
type Episode struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	SourceID  string  `json:"source_id"`
	Chapter   Chapter `json:"chapter"`
	Sequence  int     `json:"sequence"`
	Content   string  `json:"content"`
	WordCount int     `json:"word_count"`
}

// EntityCategory classifies an extracted entity.
type EntityCategory string

const (
	CategoryPerson       EntityCategory = "PERSON"
	CategoryPlace        EntityCategory = "PLACE"
	CategoryEvent        EntityCategory = "EVENT"
	CategoryOrganization EntityCategory = "ORGANIZATION"
	CategoryDate         EntityCategory = "DATE"
)

// EntityCategories lists all valid entity categories.
var EntityCategories = []EntityCategory{
	CategoryPerson,
	CategoryPlace,
	CategoryEvent,
	CategoryOrganization,
	CategoryDate,
}

// ParseEntityCategory resolves a model-produced category string to a known
// category. Unknown values resolve to CategoryEvent for event-like input and
// otherwise report ok=false.
func ParseEntityCategory(value string) (EntityCategory, bool) {
	c := EntityCategory(normalizeToken(value))
	for _, known := range EntityCategories {
		if c == known {
			return known, true
		}
	}
	// common singular/plural drift from the model
	switch c {
	case "PEOPLE", "PERSONS", "CHARACTER":
		return CategoryPerson, true
	case "PLACES", "LOCATION", "LOCATIONS":
		return CategoryPlace, true
	case "EVENTS":
		return CategoryEvent, true
	case "ORGANIZATIONS", "ORG":
		return CategoryOrganization, true
	case "DATES", "TIME", "TEMPORAL_MARKER":
		return CategoryDate, true
	}
	return "", false
}

// Entity is a node in the graph: a person, place, organization, event or date
// mentioned in the text. Entities merge on (name, category); attribute fields
// follow last-write-wins while provenance tags are additive.
type Entity struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Category     EntityCategory `json:"category"`
	Role         string         `json:"role"`
	Significance string         `json:"significance"`
	Sources      []string       `json:"sources"`
}

// Relationship is a typed, directed, evidence-bearing edge between two
// entities, identified by their names. Relationships merge on (from, to, type)
// and are never deleted, only augmented.
type Relationship struct {
	ID      string       `json:"id"`
	From    string       `json:"from"`
	To      string       `json:"to"`
	Type    RelationType `json:"type"`
	Context string       `json:"context"`
	Sources []string     `json:"sources"`
}

// CanonicalEntity is an alias-resolution anchor grouping multiple name
// spellings of the same real-world entity. Entities link to it via an
// interprets-as relation; the canonical entity never owns them.
type CanonicalEntity struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Category EntityCategory `json:"category"`
}
