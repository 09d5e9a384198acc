package extract

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/genai"
)

// GeminiConfig holds model parameters for statement transcription.
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	TopP            float32
	MaxOutputTokens int32
	Timeout         time.Duration
}

// DefaultGeminiConfig is deterministic: temperature 0, top-p 1.
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		Model:           "gemini-2.5-flash",
		Temperature:     0,
		TopP:            1,
		MaxOutputTokens: 8192,
		Timeout:         120 * time.Second,
	}
}

// GeminiProvider implements Provider with Google's Gemini models.
// The client is created on first use and reused.
type GeminiProvider struct {
	cfg GeminiConfig

	once      sync.Once
	client    *genai.Client
	clientErr error
}

// Ensure interface compliance
var _ Provider = (*GeminiProvider)(nil)

func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	def := DefaultGeminiConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = def.MaxOutputTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	return &GeminiProvider{cfg: cfg}
}

func (p *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.once.Do(func() {
		if p.cfg.APIKey == "" {
			p.clientErr = errors.New("GEMINI_API_KEY not set")
			return
		}
		p.client, p.clientErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if p.clientErr != nil {
			p.clientErr = fmt.Errorf("failed to create GenAI client: %w", p.clientErr)
		}
	})
	return p.client, p.clientErr
}

// Generate sends the prompt and the inline document in one user turn.
func (p *GeminiProvider) Generate(ctx context.Context, req Request) (string, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(p.cfg.Temperature),
		TopP:            genai.Ptr(p.cfg.TopP),
		MaxOutputTokens: p.cfg.MaxOutputTokens,
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if len(req.Document.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.Document.Data, req.Document.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	result, err := client.Models.GenerateContent(ctx, p.cfg.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	text := result.Text()
	if len(result.Candidates) == 0 || text == "" {
		return "", ErrNoContent
	}
	return text, nil
}
