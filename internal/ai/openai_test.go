package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanMarkdownJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"padded", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMarkdownJSON(tt.in))
		})
	}
}

func TestClampShortAnswer(t *testing.T) {
	assert.Equal(t, "Yes", clampShortAnswer("Yes."))
	assert.Equal(t, "Two weeks notice", clampShortAnswer("Two weeks notice, starting immediately"))
	assert.Equal(t, "Yes", clampShortAnswer("   "))
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "Año", truncate("Años de experiencia", 3))
	assert.Equal(t, "héllo", truncate("héllo", 10))
	assert.Equal(t, "héllo", truncate("héllo", 0))
}

// fakeChat serves a canned chat-completions response.
func fakeChat(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestTailorResumeParsesFencedJSON(t *testing.T) {
	tailored := "```json\n{\"first_name\":\"Ada\",\"last_name\":\"Lovelace\",\"experience\":[{\"company\":\"Acme Corp\",\"role\":\"Engineer\",\"start_date\":\"2019\",\"end_date\":\"2021\"}]}\n```"
	srv := fakeChat(t, tailored)
	defer srv.Close()

	client := NewOpenAIClient("test-key", srv.URL, "tailor-model", "answer-model")
	resume, err := client.TailorResume(context.Background(), `{"first_name":"Ada"}`, "Go engineer role")
	require.NoError(t, err)
	assert.Equal(t, "Ada", resume.FirstName)
	assert.Equal(t, "Acme Corp", resume.Experience[0].Company)
}

func TestAnswerQuestionEnforcesCapLocally(t *testing.T) {
	srv := fakeChat(t, strings.Repeat("x", 1000))
	defer srv.Close()

	client := NewOpenAIClient("test-key", srv.URL, "t", "a")
	answer, err := client.AnswerQuestion(context.Background(), AnswerRequest{
		Question: "Why this company?",
		MaxChars: 120,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(answer), 120)
}

func TestPickOptionSnapsToClosedSet(t *testing.T) {
	srv := fakeChat(t, "authorized to work")
	defer srv.Close()

	client := NewOpenAIClient("test-key", srv.URL, "t", "a")
	choice, err := client.PickOption(context.Background(), PickRequest{
		Question: "Are you authorized to work?",
		Options:  []string{"Yes, I am authorized to work", "No"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Yes, I am authorized to work", choice)
}

func TestPickCheckboxLabelsDropsInventedOptions(t *testing.T) {
	srv := fakeChat(t, `["Go", "Rust"]`)
	defer srv.Close()

	client := NewOpenAIClient("test-key", srv.URL, "t", "a")
	selected, err := client.PickCheckboxLabels(context.Background(), PickRequest{
		Question: "Which languages do you know?",
		Options:  []string{"Go", "Python"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, selected)
}
