// Package vision reads a Strands board from a photo with Gemini on Vertex AI.
package vision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/bodul/strands/internal/config"
)

const defaultScanTimeout = time.Minute

// Client scans board photos. One client is shared by every session.
type Client struct {
	genai   *genai.Client
	model   string
	timeout time.Duration
}

// NewClient connects to Vertex AI with Application Default Credentials
// (GOOGLE_APPLICATION_CREDENTIALS). Empty region and model fall back to the
// configuration defaults.
func NewClient(ctx context.Context, cfg config.Vision) (*Client, error) {
	if cfg.Project == "" {
		return nil, errors.New("vision: project is required")
	}
	def := config.Default().Vision
	if cfg.Region == "" {
		cfg.Region = def.Region
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultScanTimeout
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.Project,
		Location: cfg.Region,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("vision: connect to %s/%s: %w", cfg.Project, cfg.Region, err)
	}
	return &Client{genai: gc, model: cfg.Model, timeout: cfg.Timeout}, nil
}

// Close is a no-op; the genai client holds no releasable resources.
func (c *Client) Close() error {
	return nil
}
