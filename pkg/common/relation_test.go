package common

import "testing"

func TestParseRelationType(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   RelationType
		wantOk bool
	}{
		{
			name:   "exact match",
			input:  "COMMANDS",
			want:   RelationCommands,
			wantOk: true,
		},
		{
			name:   "lowercase",
			input:  "travels_to",
			want:   RelationTravelsTo,
			wantOk: true,
		},
		{
			name:   "spaces instead of underscores",
			input:  "escapes from",
			want:   RelationEscapesFrom,
			wantOk: true,
		},
		{
			name:   "surrounding whitespace",
			input:  "  RESCUES  ",
			want:   RelationRescues,
			wantOk: true,
		},
		{
			name:   "unknown coerced to fallback",
			input:  "EVACUATED_WITH_GREAT_HASTE",
			want:   RelationRelatedTo,
			wantOk: false,
		},
		{
			name:   "empty coerced to fallback",
			input:  "",
			want:   RelationRelatedTo,
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRelationType(tt.input)
			if got != tt.want || ok != tt.wantOk {
				t.Errorf("ParseRelationType(%q) = (%v, %v), want (%v, %v)",
					tt.input, got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestRelationTypeCategory(t *testing.T) {
	if got := RelationCauses.Category(); got != "CAUSAL" {
		t.Errorf("Category() = %v, want CAUSAL", got)
	}
	if got := RelationRelatedTo.Category(); got != "GENERAL" {
		t.Errorf("Category() = %v, want GENERAL", got)
	}
	if got := RelationType("BOGUS").Category(); got != "GENERAL" {
		t.Errorf("Category() = %v, want GENERAL", got)
	}
}

func TestParseEntityCategory(t *testing.T) {
	tests := []struct {
		input  string
		want   EntityCategory
		wantOk bool
	}{
		{"PERSON", CategoryPerson, true},
		{"people", CategoryPerson, true},
		{"places", CategoryPlace, true},
		{"location", CategoryPlace, true},
		{"ORGANIZATIONS", CategoryOrganization, true},
		{"dates", CategoryDate, true},
		{"gibberish", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseEntityCategory(tt.input)
			if got != tt.want || ok != tt.wantOk {
				t.Errorf("ParseEntityCategory(%q) = (%v, %v), want (%v, %v)",
					tt.input, got, ok, tt.want, tt.wantOk)
			}
		})
	}
}
