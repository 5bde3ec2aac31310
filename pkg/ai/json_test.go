package ai

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"question":"Q","answer":"A"}`,
			want:  `{"question":"Q","answer":"A"}`,
		},
		{
			name:  "object with surrounding prose",
			input: "Here is the result:\n{\"grade\":\"correct\"}\nHope that helps!",
			want:  `{"grade":"correct"}`,
		},
		{
			name:  "markdown fenced",
			input: "```json\n{\"answer\":\"A\"}\n```",
			want:  `{"answer":"A"}`,
		},
		{
			name:  "nested braces inside strings",
			input: `{"rationale":"contains {braces} and \"quotes\""}`,
			want:  `{"rationale":"contains {braces} and \"quotes\""}`,
		},
		{
			name:    "no JSON at all",
			input:   "I cannot answer that.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("extractJSON failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
