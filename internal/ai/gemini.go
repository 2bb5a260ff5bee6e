// Package ai provides an optional Gemini-backed fallback for captions where
// the pattern cascade finds no article code. When no API key is configured
// the client is nil and callers degrade gracefully.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Client struct {
	model *genai.GenerativeModel
}

type extractionResult struct {
	Article string `json:"article"`
	Found   bool   `json:"found"`
}

func NewClient(ctx context.Context, apiKey, modelID string) (*Client, error) {
	if apiKey == "" {
		return nil, nil // No key: callers treat a nil client as disabled.
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelID)
	model.SetTemperature(0.1) // Low temperature for deterministic output
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"article": {
				Type:        genai.TypeString,
				Description: "The marketplace article/product code found in the text, uppercased. Empty if none.",
			},
			"found": {
				Type:        genai.TypeBoolean,
				Description: "True only if the text clearly contains a product article code.",
			},
		},
		Required: []string{"article", "found"},
	}

	return &Client{model: model}, nil
}

// ExtractArticle asks the model for an article code. Returns ("", false, nil)
// when the client is disabled or the model finds nothing.
func (c *Client) ExtractArticle(ctx context.Context, text string) (string, bool, error) {
	if c == nil || c.model == nil {
		return "", false, nil // Graceful degradation
	}

	prompt := fmt.Sprintf(`
The following is a social media post caption from a blogger promoting a
marketplace product. Find the product article code (examples: "WB204512",
"1846306731", "sku-88421"). Captions mention codes in many broken formats.

Caption: %q

Output JSON adhering to the schema. Do not invent a code that is not in the
caption.
`, text)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", false, fmt.Errorf("gemini generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false, fmt.Errorf("no response candidates from gemini")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		txt, ok := part.(genai.Text)
		if !ok {
			continue
		}
		jsonStr := strings.TrimSpace(string(txt))
		jsonStr = strings.TrimPrefix(jsonStr, "```json")
		jsonStr = strings.TrimPrefix(jsonStr, "```")
		jsonStr = strings.TrimSuffix(jsonStr, "```")

		var result extractionResult
		if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
			return "", false, fmt.Errorf("failed to parse gemini response: %w", err)
		}
		if !result.Found || strings.TrimSpace(result.Article) == "" {
			return "", false, nil
		}
		return strings.ToUpper(strings.TrimSpace(result.Article)), true, nil
	}

	return "", false, fmt.Errorf("no text part in response")
}
