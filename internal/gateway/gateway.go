package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/imagetext/apiserver/config"
)

var (
	ErrImageTooLarge       = errors.New("image too large")
	ErrUnsupportedImage    = errors.New("unsupported image")
	ErrEmptyText           = errors.New("empty text")
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrModel wraps failures of the model call itself.
	ErrModel = errors.New("model call failed")
)

// Request is a single generation call. Image, when set, is PNG encoded.
type Request struct {
	Model           string
	Prompt          string
	Image           []byte
	Temperature     *float32
	MaxOutputTokens int32
}

// Generator sends one prompt to a multimodal model and returns the text reply.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Client turns content actions into prompts for a Generator.
type Client struct {
	gen            Generator
	model          string
	socialModel    string
	fallbackModels []string
}

func NewClient(gen Generator, cfg config.GatewayConfig) *Client {
	socialModel := cfg.SocialModel
	if socialModel == "" {
		socialModel = cfg.Model
	}
	return &Client{
		gen:            gen,
		model:          cfg.Model,
		socialModel:    socialModel,
		fallbackModels: cfg.FallbackModels,
	}
}

// ExtractText returns all text visible in the image, verbatim. An image
// without text yields an empty string, not an error.
func (c *Client) ExtractText(ctx context.Context, image []byte) (string, error) {
	png, err := NormalizePNG(image)
	if err != nil {
		return "", err
	}
	req := Request{Model: c.model, Prompt: extractPrompt, Image: png}
	reply, err := c.gen.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrModel, req.Model, err)
	}
	return strings.TrimSpace(reply), nil
}

// Translate translates text into the named language. Spanish and English
// language names and ISO codes are accepted.
func (c *Client) Translate(ctx context.Context, text, language string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	code, ok := LanguageCode(language)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	return c.generate(ctx, Request{Model: c.model, Prompt: translatePrompt(code, text)})
}

// Describe describes the image at the given level of detail.
func (c *Client) Describe(ctx context.Context, image []byte, level string) (string, error) {
	png, err := NormalizePNG(image)
	if err != nil {
		return "", err
	}
	return c.generate(ctx, Request{Model: c.model, Prompt: describePrompts[ResolveLevel(level)], Image: png})
}

// Analyze analyzes the image from the given angle.
func (c *Client) Analyze(ctx context.Context, image []byte, kind string) (string, error) {
	png, err := NormalizePNG(image)
	if err != nil {
		return "", err
	}
	return c.generate(ctx, Request{Model: c.model, Prompt: analysisPrompts[ResolveAnalysis(kind)], Image: png})
}

func (c *Client) generate(ctx context.Context, req Request) (string, error) {
	reply, err := c.gen.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrModel, req.Model, err)
	}
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("%w: %s: empty reply", ErrModel, req.Model)
	}
	return reply, nil
}
