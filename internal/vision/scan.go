package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/bodul/strands/internal/board"
)

const scanPrompt = `This photo shows a Strands word puzzle: a grid of %d rows and %d columns of capital letters.

Read the letters row by row, top to bottom, left to right, and answer with JSON:
{"rows": ["ABCDEF", ...]}

Rules:
- Exactly %d strings, each exactly %d letters A-Z.
- No spaces, punctuation or markdown. Answer ONLY with the JSON.`

// Scanner turns a board photo into rows of letters.
type Scanner interface {
	Scan(ctx context.Context, imageData []byte, mimeType string, rows, cols int) ([]string, error)
}

type scanResult struct {
	Rows []string `json:"rows"`
}

// Scan sends the image to Gemini and returns rows×cols uppercase letters.
func (c *Client) Scan(ctx context.Context, imageData []byte, mimeType string, rows, cols int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.genai.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{
			Role: "user",
			Parts: []*genai.Part{
				{Text: fmt.Sprintf(scanPrompt, rows, cols, rows, cols)},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: imageData}},
			},
		}},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0.1)),
			TopP:             genai.Ptr(float32(1)),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty gemini response")
	}
	return ParseRows(text, rows, cols)
}

// ParseRows decodes the model answer and checks it fits a rows×cols board.
func ParseRows(text string, rows, cols int) ([]string, error) {
	var res scanResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		return nil, fmt.Errorf("parse rows JSON: %w\nraw response: %s", err, text)
	}
	if len(res.Rows) != rows {
		return nil, fmt.Errorf("invalid board: got %d rows, want %d", len(res.Rows), rows)
	}
	out := make([]string, rows)
	for i, row := range res.Rows {
		g := board.New(1, cols)
		if err := g.Load([]string{strings.TrimSpace(row)}); err != nil {
			return nil, fmt.Errorf("invalid board row %d %q: %w", i, row, err)
		}
		out[i] = g.Rows()[0]
		if len(out[i]) != cols {
			return nil, fmt.Errorf("invalid board row %d %q: non-letter cells", i, row)
		}
	}
	return out, nil
}
