package query

import "strings"

// QueryType annotates a question with the kind of analysis it asks for. The
// classification is advisory: it is reported to the caller and may select an
// analysis mode, but retrieval itself is identical for every type.
type QueryType string

const (
	QueryTypeCharacter    QueryType = "character"
	QueryTypePlot         QueryType = "plot"
	QueryTypeRelationship QueryType = "relationship"
	QueryTypeTheme        QueryType = "theme"
	QueryTypeTemporal     QueryType = "temporal"
	QueryTypeGeneral      QueryType = "general"
)

// AnalysisModes lists the query types a caller may force via analysis_mode.
func AnalysisModes() []string {
	return []string{
		string(QueryTypeCharacter),
		string(QueryTypePlot),
		string(QueryTypeRelationship),
		string(QueryTypeTheme),
		string(QueryTypeTemporal),
		string(QueryTypeGeneral),
	}
}

// ParseQueryType resolves an analysis_mode string to a QueryType.
func ParseQueryType(value string) (QueryType, bool) {
	t := QueryType(strings.ToLower(strings.TrimSpace(value)))
	for _, mode := range AnalysisModes() {
		if string(t) == mode {
			return t, true
		}
	}
	return QueryTypeGeneral, false
}

var classifierKeywords = []struct {
	queryType QueryType
	keywords  []string
}{
	{QueryTypeRelationship, []string{
		"relationship", "relate", "between", "feel about", "connected",
		"interact", "friends", "enemies", "allies",
	}},
	{QueryTypeTemporal, []string{
		"when", "timeline", "chronolog", "sequence of events", "what year",
		"what date", "how long", "before or after",
	}},
	{QueryTypeTheme, []string{
		"theme", "symbol", "represent", "meaning", "signify", "motif",
		"metaphor", "moral",
	}},
	{QueryTypeCharacter, []string{
		"who is", "who was", "who were", "character", "personality",
		"describe the", "what kind of person", "background of",
	}},
	{QueryTypePlot, []string{
		"what happened", "what happen", "what did", "why did", "how did",
		"event", "led to", "caused", "outcome", "result of",
	}},
}

// ClassifyQuestion assigns a question the first matching query type, falling
// back to general.
func ClassifyQuestion(question string) QueryType {
	lower := strings.ToLower(question)
	for _, entry := range classifierKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return entry.queryType
			}
		}
	}
	return QueryTypeGeneral
}
