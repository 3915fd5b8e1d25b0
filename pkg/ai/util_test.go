package ai

import (
	"reflect"
	"testing"
)

type testRecord struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func TestExtractFirstJSONBlock(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "plain object",
			input: `{"name":"Jennings"}`,
			want:  `{"name":"Jennings"}`,
		},
		{
			name:  "prose before and after",
			input: `Here is the result: {"name":"Jennings"} I hope this helps!`,
			want:  `{"name":"Jennings"}`,
		},
		{
			name:  "nested objects",
			input: `{"a":{"b":{"c":1}},"d":2} trailing`,
			want:  `{"a":{"b":{"c":1}},"d":2}`,
		},
		{
			name:  "braces inside strings ignored",
			input: `{"note":"a { stray } brace"}`,
			want:  `{"note":"a { stray } brace"}`,
		},
		{
			name:  "escaped quote inside string",
			input: `{"note":"she said \"run\""}`,
			want:  `{"note":"she said \"run\""}`,
		},
		{
			name:    "truncated object",
			input:   `{"entities":[{"name":"Smyrna"`,
			wantErr: true,
		},
		{
			name:    "no object at all",
			input:   "The text mentions no structured data.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractFirstJSONBlock(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractFirstJSONBlock() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractFirstJSONBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no fence passthrough",
			input: `{"a":1}`,
			want:  `{"a":1}`,
		},
		{
			name:  "json fence",
			input: "```json\n{\"a\":1}\n```",
			want:  `{"a":1}`,
		},
		{
			name:  "bare fence",
			input: "```\n{\"a\":1}\n```",
			want:  `{"a":1}`,
		},
		{
			name:  "unclosed fence runs to end",
			input: "```json\n{\"a\":1}",
			want:  `{"a":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.input); got != tt.want {
				t.Errorf("StripCodeFences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnmarshalFlexible(t *testing.T) {
	want := testRecord{Name: "Jennings", Kind: "PERSON"}

	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "standard json",
			input: `{"name":"Jennings","kind":"PERSON"}`,
		},
		{
			name:  "double encoded",
			input: `"{\"name\":\"Jennings\",\"kind\":\"PERSON\"}"`,
		},
		{
			name:  "fenced block",
			input: "Sure!\n```json\n{\"name\":\"Jennings\",\"kind\":\"PERSON\"}\n```\nLet me know.",
		},
		{
			name:  "prose around payload",
			input: `Based on the text: {"name":"Jennings","kind":"PERSON"} as requested.`,
		},
		{
			name:  "unquoted keys repaired",
			input: `{name: "Jennings", kind: "PERSON"}`,
		},
		{
			name:  "duplicate leading brace",
			input: `{{"name":"Jennings","kind":"PERSON"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got testRecord
			if err := UnmarshalFlexible(tt.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("UnmarshalFlexible() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestUnmarshalFlexibleGarbage(t *testing.T) {
	var got testRecord
	if err := UnmarshalFlexible("no structure here at all", &got); err == nil {
		t.Error("UnmarshalFlexible() expected error for unparseable input")
	}
}
