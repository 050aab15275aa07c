// Package llm wraps the external text-generation service behind the two
// request shapes the pipeline needs. The service is fallible and rate
// limited; callers always degrade to documented empty outputs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
)

// ErrNoCredentials means no API key is configured; callers treat this the
// same as any other service failure.
var ErrNoCredentials = errors.New("llm credentials not configured")

type Client struct {
	apiKey     string
	baseURL    string
	modelName  string
	httpClient *http.Client
}

func NewClient(apiKey, baseURL, modelName string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		modelName:  modelName,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a key is present, so callers can skip the call
// entirely instead of paying a round trip to fail.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// ExtractSessionThemes runs the first request type: prior goal texts plus
// recent Q&A in, wins/challenges/goal statuses out.
func (c *Client) ExtractSessionThemes(ctx context.Context, goals []string, sessions []models.SessionQA) (*models.SessionExtract, error) {
	input, err := json.Marshal(map[string]interface{}{
		"prior_goals":     goals,
		"recent_sessions": sessions,
	})
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`You are reviewing a health coaching member's recent survey answers.

%s

Identify up to 6 wins and up to 6 challenges from the answers, and assess each prior goal.
Return a JSON object:
{"wins": ["..."], "challenges": [{"description": "...", "severity": "low|moderate|high"}], "goal_statuses": [{"goal": "...", "status": "on_track|at_risk|win|insufficient_data", "note": "..."}]}
Only report what the answers support; do not invent wins or challenges.`, input)

	content, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var extract models.SessionExtract
	if err := json.Unmarshal([]byte(content), &extract); err != nil {
		return nil, fmt.Errorf("unparseable extraction response: %w", err)
	}
	if len(extract.Wins) > 6 {
		extract.Wins = extract.Wins[:6]
	}
	if len(extract.Challenges) > 6 {
		extract.Challenges = extract.Challenges[:6]
	}
	return &extract, nil
}

// GenerateRecommendations runs the second request type: a structured
// member-vs-population comparison in, 3-5 prioritized recommendations out.
func (c *Client) GenerateRecommendations(ctx context.Context, metrics models.MemberMetrics, report models.InsightReport) ([]models.Recommendation, error) {
	input, err := json.Marshal(map[string]interface{}{
		"status_score":     metrics.StatusScore,
		"status_tier":      metrics.StatusTier,
		"compliance":       metrics.Compliance,
		"vitals":           metrics.Vitals,
		"overdue_modules":  metrics.Timeline.Overdue,
		"percentile":       report.Percentile,
		"quartile":         report.Quartile,
		"population_means": report.PopulationMeans,
		"deltas":           report.Deltas,
		"risk_factors":     report.RiskFactors,
		"journey_pattern":  report.JourneyPattern,
	})
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`You are a health coach comparing one member against the program population.

%s

Produce 3 to 5 prioritized coaching recommendations addressing the largest gaps first.
Return a JSON object: {"recommendations": [{"priority": 1, "title": "...", "detail": "..."}]}`, input)

	content, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Recommendations []models.Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("unparseable recommendations response: %w", err)
	}
	if len(parsed.Recommendations) > 5 {
		parsed.Recommendations = parsed.Recommendations[:5]
	}
	return parsed.Recommendations, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoCredentials
	}

	payload := map[string]interface{}{
		"model": c.modelName,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature":     0.3,
		"response_format": map[string]string{"type": "json_object"},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm request failed with status %d", resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from llm")
	}
	return result.Choices[0].Message.Content, nil
}
