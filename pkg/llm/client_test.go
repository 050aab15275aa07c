package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
)

func chatResponse(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(body)
}

func TestExtractSessionThemes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		w.Write([]byte(chatResponse(`{
			"wins": ["slept 8 hours"],
			"challenges": [{"description": "travel week", "severity": "moderate"}],
			"goal_statuses": [{"goal": "walk daily", "status": "on_track", "note": "4 of 5 days"}]
		}`)))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "test-model", 5*time.Second)
	extract, err := client.ExtractSessionThemes(context.Background(), []string{"walk daily"}, []models.SessionQA{})
	if err != nil {
		t.Fatalf("extraction failed: %v", err)
	}
	if len(extract.Wins) != 1 || extract.Wins[0] != "slept 8 hours" {
		t.Fatalf("unexpected wins: %v", extract.Wins)
	}
	if len(extract.Challenges) != 1 || extract.Challenges[0].Severity != "moderate" {
		t.Fatalf("unexpected challenges: %v", extract.Challenges)
	}
	if len(extract.Goals) != 1 || extract.Goals[0].Status != models.GoalOnTrack {
		t.Fatalf("unexpected goals: %v", extract.Goals)
	}
}

func TestGenerateRecommendationsCapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse(`{"recommendations": [
			{"priority": 1, "title": "a"}, {"priority": 2, "title": "b"},
			{"priority": 3, "title": "c"}, {"priority": 4, "title": "d"},
			{"priority": 5, "title": "e"}, {"priority": 6, "title": "f"}
		]}`)))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "test-model", 5*time.Second)
	recs, err := client.GenerateRecommendations(context.Background(), models.MemberMetrics{}, models.InsightReport{})
	if err != nil {
		t.Fatalf("recommendations failed: %v", err)
	}
	if len(recs) != 5 {
		t.Fatalf("expected recommendations capped at 5, got %d", len(recs))
	}
}

func TestClientWithoutCredentials(t *testing.T) {
	client := NewClient("", "http://localhost", "test-model", time.Second)
	if client.Configured() {
		t.Fatal("expected unconfigured client")
	}
	_, err := client.ExtractSessionThemes(context.Background(), nil, nil)
	if !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}

func TestClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "test-model", time.Second)
	if _, err := client.ExtractSessionThemes(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
