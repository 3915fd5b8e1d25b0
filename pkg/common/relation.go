package common

import "strings"

// RelationType is the closed vocabulary of relationship types. Model output
// that does not resolve to one of these is coerced to RelationRelatedTo at
// parse time, never stored verbatim.
type RelationType string

const (
	// personal
	RelationLoves       RelationType = "LOVES"
	RelationTrusts      RelationType = "TRUSTS"
	RelationBetrays     RelationType = "BETRAYS"
	RelationMentors     RelationType = "MENTORS"
	RelationFamilyOf    RelationType = "FAMILY_OF"
	RelationFriendsWith RelationType = "FRIENDS_WITH"
	RelationRivalsWith  RelationType = "RIVALS_WITH"
	RelationDependsOn   RelationType = "DEPENDS_ON"

	// power
	RelationCommands   RelationType = "COMMANDS"
	RelationReportsTo  RelationType = "REPORTS_TO"
	RelationInfluences RelationType = "INFLUENCES"
	RelationControls   RelationType = "CONTROLS"
	RelationServes     RelationType = "SERVES"
	RelationRepresents RelationType = "REPRESENTS"
	RelationRescues    RelationType = "RESCUES"

	// spatial
	RelationLivesIn     RelationType = "LIVES_IN"
	RelationLocatedIn   RelationType = "LOCATED_IN"
	RelationTravelsTo   RelationType = "TRAVELS_TO"
	RelationEscapesFrom RelationType = "ESCAPES_FROM"
	RelationDefends     RelationType = "DEFENDS"
	RelationAttacks     RelationType = "ATTACKS"
	RelationOccupies    RelationType = "OCCUPIES"

	// temporal
	RelationPrecedes      RelationType = "PRECEDES"
	RelationFollows       RelationType = "FOLLOWS"
	RelationCoincidesWith RelationType = "COINCIDES_WITH"
	RelationTriggers      RelationType = "TRIGGERS"
	RelationResultsFrom   RelationType = "RESULTS_FROM"
	RelationInterrupts    RelationType = "INTERRUPTS"

	// narrative
	RelationSymbolizes    RelationType = "SYMBOLIZES"
	RelationForeshadows   RelationType = "FORESHADOWS"
	RelationParallels     RelationType = "PARALLELS"
	RelationContrastsWith RelationType = "CONTRASTS_WITH"
	RelationExemplifies   RelationType = "EXEMPLIFIES"

	// causal
	RelationCauses    RelationType = "CAUSES"
	RelationPrevents  RelationType = "PREVENTS"
	RelationEnables   RelationType = "ENABLES"
	RelationMotivates RelationType = "MOTIVATES"
	RelationInspires  RelationType = "INSPIRES"
	RelationDestroys  RelationType = "DESTROYS"

	// fallback for unrecognized model output
	RelationRelatedTo RelationType = "RELATED_TO"
)

var relationCategories = map[RelationType]string{
	RelationLoves:       "PERSONAL",
	RelationTrusts:      "PERSONAL",
	RelationBetrays:     "PERSONAL",
	RelationMentors:     "PERSONAL",
	RelationFamilyOf:    "PERSONAL",
	RelationFriendsWith: "PERSONAL",
	RelationRivalsWith:  "PERSONAL",
	RelationDependsOn:   "PERSONAL",

	RelationCommands:   "POWER",
	RelationReportsTo:  "POWER",
	RelationInfluences: "POWER",
	RelationControls:   "POWER",
	RelationServes:     "POWER",
	RelationRepresents: "POWER",
	RelationRescues:    "POWER",

	RelationLivesIn:     "SPATIAL",
	RelationLocatedIn:   "SPATIAL",
	RelationTravelsTo:   "SPATIAL",
	RelationEscapesFrom: "SPATIAL",
	RelationDefends:     "SPATIAL",
	RelationAttacks:     "SPATIAL",
	RelationOccupies:    "SPATIAL",

	RelationPrecedes:      "TEMPORAL",
	RelationFollows:       "TEMPORAL",
	RelationCoincidesWith: "TEMPORAL",
	RelationTriggers:      "TEMPORAL",
	RelationResultsFrom:   "TEMPORAL",
	RelationInterrupts:    "TEMPORAL",

	RelationSymbolizes:    "NARRATIVE",
	RelationForeshadows:   "NARRATIVE",
	RelationParallels:     "NARRATIVE",
	RelationContrastsWith: "NARRATIVE",
	RelationExemplifies:   "NARRATIVE",

	RelationCauses:    "CAUSAL",
	RelationPrevents:  "CAUSAL",
	RelationEnables:   "CAUSAL",
	RelationMotivates: "CAUSAL",
	RelationInspires:  "CAUSAL",
	RelationDestroys:  "CAUSAL",

	RelationRelatedTo: "GENERAL",
}

func normalizeToken(value string) string {
	v := strings.ToUpper(strings.TrimSpace(value))
	v = strings.ReplaceAll(v, " ", "_")
	v = strings.ReplaceAll(v, "-", "_")
	return v
}

// ParseRelationType resolves a model-produced relationship type to a member of
// the closed vocabulary. Unrecognized values report ok=false and resolve to
// RelationRelatedTo.
func ParseRelationType(value string) (RelationType, bool) {
	t := RelationType(normalizeToken(value))
	if _, known := relationCategories[t]; known {
		return t, true
	}
	return RelationRelatedTo, false
}

// Category reports the narrative category of the relation type
// (PERSONAL, POWER, SPATIAL, TEMPORAL, NARRATIVE, CAUSAL or GENERAL).
func (t RelationType) Category() string {
	if c, ok := relationCategories[t]; ok {
		return c
	}
	return "GENERAL"
}

// RelationTypeNames returns the vocabulary grouped by category, formatted for
// inclusion in extraction prompts.
func RelationTypeNames() map[string][]string {
	out := make(map[string][]string)
	for t, category := range relationCategories {
		if t == RelationRelatedTo {
			continue
		}
		out[category] = append(out[category], string(t))
	}
	return out
}
