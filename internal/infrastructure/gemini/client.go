package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const maxIcebreakers = 3

type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *slog.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)

	return &GeminiClient{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

func (c *GeminiClient) Close() {
	c.client.Close()
}

// GenerateIcebreakers returns opening lines for a freshly matched pair. When
// the model is unreachable or answers garbage, canned lines built from the
// shared interests are returned instead.
func (c *GeminiClient) GenerateIcebreakers(ctx context.Context, a, b *domain.Profile) ([]string, error) {
	prompt := fmt.Sprintf(`
		Generate 3 short icebreaker messages for two people who just matched on a dating app.
		Person 1: name %q, interests %v, bio %q
		Person 2: name %q, interests %v, bio %q

		Focus on shared interests or interesting contrasts.
		Output: JSON array of strings. Example: ["Hi...", "Hello..."]
	`, a.Name, a.Interests, a.ShortBio, b.Name, b.Interests, b.ShortBio)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.Warn("gemini unavailable, using fallback icebreakers", "error", err)
		return FallbackIcebreakers(a, b), nil
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return FallbackIcebreakers(a, b), nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	lines, err := ParseIcebreakers(sb.String())
	if err != nil {
		c.logger.Warn("unparseable icebreakers, using fallback", "error", err)
		return FallbackIcebreakers(a, b), nil
	}
	return lines, nil
}

// ParseIcebreakers extracts lines from a model answer. It accepts a JSON
// array, optionally wrapped in a markdown code fence, or one line per entry.
func ParseIcebreakers(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var lines []string
	if err := json.Unmarshal([]byte(text), &lines); err != nil {
		lines = lines[:0]
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "[") && !strings.HasSuffix(line, "]") {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			return nil, fmt.Errorf("failed to parse icebreakers: %w", err)
		}
	}

	out := make([]string, 0, maxIcebreakers)
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
		if len(out) == maxIcebreakers {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no icebreakers in answer")
	}
	return out, nil
}

// FallbackIcebreakers builds canned opening lines for a pair.
func FallbackIcebreakers(a, b *domain.Profile) []string {
	shared := sharedInterests(a.Interests, b.Interests)
	out := make([]string, 0, maxIcebreakers)
	for _, interest := range shared {
		out = append(out, fmt.Sprintf("You both like %s. What got you into it?", interest))
		if len(out) == maxIcebreakers-1 {
			break
		}
	}
	out = append(out, "What is the best thing that happened to you this week?")
	return out
}

func sharedInterests(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range b {
		if _, ok := set[s]; ok {
			out = append(out, s)
			delete(set, s)
		}
	}
	return out
}
