package graph

import (
	"strings"
	"unicode"

	"github.com/41rumble/great-fire-smyrna-rag/pkg/common"
)

// placeLexicon names locations of the source material's geography so the
// pattern fallback can categorize them as PLACE instead of the PERSON default.
var placeLexicon = map[string]struct{}{
	"smyrna":         {},
	"izmir":          {},
	"constantinople": {},
	"istanbul":       {},
	"athens":         {},
	"greece":         {},
	"turkey":         {},
	"anatolia":       {},
	"mytilene":       {},
	"lesbos":         {},
	"chios":          {},
	"paradise":       {},
	"bournabat":      {},
	"cordelio":       {},
	"aidin":          {},
	"ankara":         {},
	"angora":         {},
	"the quay":       {},
	"aegean":         {},
	"america":        {},
	"piraeus":        {},
	"salonika":       {},
}

// leadingStopwords are capitalized sentence starters that a naive
// capitalization scan would otherwise report as names.
var leadingStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "but": {}, "or": {}, "if": {},
	"in": {}, "on": {}, "at": {}, "as": {}, "by": {}, "of": {}, "to": {},
	"he": {}, "she": {}, "it": {}, "they": {}, "we": {}, "i": {}, "you": {},
	"his": {}, "her": {}, "its": {}, "their": {}, "this": {}, "that": {},
	"there": {}, "then": {}, "when": {}, "while": {}, "after": {}, "before": {},
	"chapter": {}, "one": {}, "two": {}, "three": {}, "no": {}, "not": {},
	"what": {}, "who": {}, "now": {}, "here": {}, "all": {}, "for": {},
	"with": {}, "from": {}, "was": {}, "were": {}, "had": {}, "have": {},
}

// extractEntitiesByPattern is the degraded-mode extractor used when the model
// is unavailable or returns unusable output. It scans for runs of capitalized
// words and labels them against the place lexicon, defaulting to PERSON.
// No relationships are produced in this mode.
func extractEntitiesByPattern(text string, sourceID string) []common.Entity {
	words := strings.Fields(text)

	var entities []common.Entity
	seen := make(map[string]struct{})

	emit := func(run []string) {
		if len(run) == 0 {
			return
		}
		name := strings.Join(run, " ")
		lower := strings.ToLower(name)
		if len(run) == 1 {
			// single capitalized words are only trusted when the lexicon
			// knows them, otherwise they are mostly sentence starters
			if _, ok := placeLexicon[lower]; !ok {
				return
			}
		}
		if _, dup := seen[lower]; dup {
			return
		}
		seen[lower] = struct{}{}

		category := common.CategoryPerson
		if _, ok := placeLexicon[lower]; ok {
			category = common.CategoryPlace
		}
		entities = append(entities, common.Entity{
			Name:     name,
			Category: category,
			Sources:  []string{sourceID},
		})
	}

	var run []string
	for _, raw := range words {
		word := strings.TrimFunc(raw, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word == "" {
			emit(run)
			run = nil
			continue
		}

		first := []rune(word)[0]
		_, stop := leadingStopwords[strings.ToLower(word)]
		if unicode.IsUpper(first) && !stop {
			run = append(run, word)
		} else {
			emit(run)
			run = nil
		}

		// punctuation after the word ends the run even if the next word is
		// capitalized
		if strings.ContainsAny(raw, ".!?;:,") {
			emit(run)
			run = nil
		}
	}
	emit(run)

	return entities
}
