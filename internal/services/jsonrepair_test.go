package services

import (
	"strings"
	"testing"
)

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		want         string
		wantRepaired bool
		wantErr      bool
	}{
		{
			name: "clean object passes through untouched",
			raw:  `{"name":"hook"}`,
			want: `{"name":"hook"}`,
		},
		{
			name:         "json code fence",
			raw:          "```json\n{\"name\":\"hook\"}\n```",
			want:         `{"name":"hook"}`,
			wantRepaired: true,
		},
		{
			name:         "bare code fence",
			raw:          "```\n{\"a\":1}\n```",
			want:         `{"a":1}`,
			wantRepaired: true,
		},
		{
			name:         "prose around the object",
			raw:          "Here is the analysis you asked for:\n{\"niche\":\"fitness\"}\nHope this helps!",
			want:         `{"niche":"fitness"}`,
			wantRepaired: true,
		},
		{
			name:         "fence and prose combined",
			raw:          "Sure!\n```json\n{\"sections\":[]}\n```",
			want:         `{"sections":[]}`,
			wantRepaired: true,
		},
		{
			name:    "no object at all",
			raw:     "I could not produce the analysis.",
			wantErr: true,
		},
		{
			name:    "truncated object",
			raw:     `{"name":"hook","pacing":`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RepairJSON(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got.Text)
				}
				if _, ok := err.(*MalformedResponseError); !ok {
					t.Fatalf("expected MalformedResponseError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Text != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got.Text)
			}
			if got.Repaired != tc.wantRepaired {
				t.Errorf("expected repaired=%v, got %v", tc.wantRepaired, got.Repaired)
			}
		})
	}
}

func TestRepairJSON_Idempotent(t *testing.T) {
	raw := "```json\n{\"name\":\"hook\"}\n```"

	first, err := RepairJSON(raw)
	if err != nil {
		t.Fatalf("first pass failed: %v", err)
	}

	second, err := RepairJSON(first.Text)
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	if second.Text != first.Text {
		t.Errorf("second pass changed the text: %q vs %q", second.Text, first.Text)
	}
	if second.Repaired {
		t.Errorf("second pass should be a clean passthrough")
	}
}

func TestRepairJSON_ErrorPreviewIsBounded(t *testing.T) {
	raw := strings.Repeat("garbage ", 100)

	_, err := RepairJSON(raw)
	malformed, ok := err.(*MalformedResponseError)
	if !ok {
		t.Fatalf("expected MalformedResponseError, got %T", err)
	}
	if len(malformed.Preview) > 210 {
		t.Errorf("preview too long: %d chars", len(malformed.Preview))
	}
}
