package provider

import "testing"

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "bare object",
			response: `{"keywords":["laptop"]}`,
			want:     `{"keywords":["laptop"]}`,
		},
		{
			name:     "markdown fenced",
			response: "```json\n{\"a\":1}\n```",
			want:     `{"a":1}`,
		},
		{
			name:     "prose around the object",
			response: `Sure, here is the strategy: {"a":1} hope that helps!`,
			want:     `{"a":1}`,
		},
		{
			name:     "nested objects",
			response: `{"outer":{"inner":{"a":1}}}`,
			want:     `{"outer":{"inner":{"a":1}}}`,
		},
		{
			name:     "braces inside string values",
			response: `{"text":"use {curly} braces"}`,
			want:     `{"text":"use {curly} braces"}`,
		},
		{
			name:     "escaped quote inside string",
			response: `{"text":"she said \"}\" loudly"}`,
			want:     `{"text":"she said \"}\" loudly"}`,
		},
		{
			name:     "first of two objects",
			response: `{"a":1} trailing text {"b":2}`,
			want:     `{"a":1}`,
		},
		{
			name:     "no object",
			response: "the model refused to answer",
			want:     "",
		},
		{
			name:     "unbalanced object",
			response: `{"a":1`,
			want:     "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractJSON(tc.response); got != tc.want {
				t.Fatalf("extractJSON(%q) = %q, want %q", tc.response, got, tc.want)
			}
		})
	}
}
