package digest

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validJSON = `{
  "digest_summary": "今日の概要。\n\n次の段落。",
  "learning": [
    {"title": "Go generics", "description": "型パラメータ", "tags": ["go"]},
    {"title": "pprof", "description": "プロファイル"},
    {"title": "slog", "description": "構造化ログ", "tags": ["go", "logging"]}
  ],
  "news": [
    {"title": "Go 1.26", "description": "https://go.dev/blog", "tags": ["go"]},
    {"title": "News 2", "description": "d"},
    {"title": "News 3", "description": "d"}
  ],
  "action": [
    {"title": "Fix CI", "description": "d", "priority": "High", "tags": ["ci"]},
    {"title": "Write docs", "description": "d", "priority": "Low"},
    {"title": "Review PR", "description": "d", "priority": "Medium"}
  ],
  "idea": [{"title": "CLI plugin", "description": "d"}],
  "request_answers": [{"request_id": "req-1", "answer_summary": "回答"}]
}`

func TestParse(t *testing.T) {
	d, err := Parse([]byte(validJSON))
	require.NoError(t, err)

	assert.Equal(t, "今日の概要。\n\n次の段落。", d.Summary)
	assert.Len(t, d.Learning, 3)
	assert.Len(t, d.News, 3)
	assert.Len(t, d.Action, 3)
	assert.Len(t, d.Idea, 1)

	wantAction := Item{Title: "Fix CI", Description: "d", Priority: "High", Tags: []string{"ci"}}
	if diff := cmp.Diff(wantAction, d.Action[0]); diff != "" {
		t.Errorf("action[0] mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Answer{{RequestID: "req-1", AnswerSummary: "回答"}}, d.RequestAnswers); diff != "" {
		t.Errorf("request_answers mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, d.CountWarnings())
}

func TestParseMissingListsDefaultEmpty(t *testing.T) {
	d, err := Parse([]byte(`{"digest_summary": "only summary"}`))
	require.NoError(t, err)

	for _, c := range ItemCategories {
		assert.Empty(t, d.Items(c))
	}
	assert.Empty(t, d.RequestAnswers)
	assert.Len(t, d.CountWarnings(), 4)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing summary", `{"learning": []}`},
		{"empty summary", `{"digest_summary": ""}`},
		{"item without title", `{"digest_summary": "s", "news": [{"description": "d"}]}`},
		{"bad priority", `{"digest_summary": "s", "action": [{"title": "t", "priority": "Urgent"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestParseNormalizesPriorityCase(t *testing.T) {
	d, err := Parse([]byte(`{"digest_summary": "s", "action": [
		{"title": "a", "priority": "high"},
		{"title": "b", "priority": "MEDIUM"},
		{"title": "c", "priority": " low "},
		{"title": "d"}
	]}`))
	require.NoError(t, err)

	var got []string
	for _, item := range d.Action {
		got = append(got, item.Priority)
	}
	assert.Equal(t, []string{"High", "Medium", "Low", ""}, got)
}

func TestParseMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"digest_summary": `))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalid))
}

func TestCountWarnings(t *testing.T) {
	d := &Digest{
		Summary:  "s",
		Learning: make([]Item, 2),
		News:     make([]Item, 3),
		Action:   make([]Item, 6),
		Idea:     make([]Item, 2),
	}
	assert.Equal(t, []string{
		"learning: got 2 items, want 3",
		"action: got 6 items, want 3-5",
	}, d.CountWarnings())
}
