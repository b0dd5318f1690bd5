package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/imagetext/apiserver/internal/gateway"
	"github.com/imagetext/apiserver/internal/logger"
	"github.com/imagetext/apiserver/types"
)

// ContentGenerator is the content generation gateway as seen by the service.
type ContentGenerator interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
	Translate(ctx context.Context, text, language string) (string, error)
	Describe(ctx context.Context, image []byte, level string) (string, error)
	Analyze(ctx context.Context, image []byte, kind string) (string, error)
	SocialPost(ctx context.Context, image []byte, style, platform string) (types.SocialContent, error)
}

// ContentService runs content actions against the gateway and stores each
// successful image result in the user's gallery.
type ContentService struct {
	gen           ContentGenerator
	images        *ImageService
	maxImageBytes int64
}

func NewContentService(gen ContentGenerator, images *ImageService, maxImageBytes int64) *ContentService {
	return &ContentService{gen: gen, images: images, maxImageBytes: maxImageBytes}
}

// ExtractText stores the OCR text verbatim.
func (s *ContentService) ExtractText(ctx context.Context, userID int, image []byte) (types.GeneratedText, error) {
	if err := s.checkImage(image); err != nil {
		return types.GeneratedText{}, err
	}

	text, err := s.gen.ExtractText(ctx, image)
	if err != nil {
		return types.GeneratedText{}, mapGatewayError(err)
	}
	return s.saveText(ctx, userID, image, text, text)
}

// Translate is not persisted.
func (s *ContentService) Translate(ctx context.Context, text, language string) (types.GeneratedText, error) {
	translated, err := s.gen.Translate(ctx, text, language)
	if err != nil {
		return types.GeneratedText{}, mapGatewayError(err)
	}
	return types.GeneratedText{Text: translated}, nil
}

func (s *ContentService) Describe(ctx context.Context, userID int, image []byte, level string) (types.GeneratedText, error) {
	if err := s.checkImage(image); err != nil {
		return types.GeneratedText{}, err
	}

	level = gateway.ResolveLevel(level)
	text, err := s.gen.Describe(ctx, image, level)
	if err != nil {
		return types.GeneratedText{}, mapGatewayError(err)
	}
	return s.saveText(ctx, userID, image, text, fmt.Sprintf("DESCRIPTION (%s):\n%s", level, text))
}

func (s *ContentService) Analyze(ctx context.Context, userID int, image []byte, kind string) (types.GeneratedText, error) {
	if err := s.checkImage(image); err != nil {
		return types.GeneratedText{}, err
	}

	kind = gateway.ResolveAnalysis(kind)
	text, err := s.gen.Analyze(ctx, image, kind)
	if err != nil {
		return types.GeneratedText{}, mapGatewayError(err)
	}
	return s.saveText(ctx, userID, image, text, fmt.Sprintf("ANALYSIS (%s):\n%s", kind, text))
}

// Social drafts a post, stores it as indented JSON and derives up to
// variations A/B variants. Model trouble never fails the call.
func (s *ContentService) Social(ctx context.Context, userID int, image []byte, style, platform string, variations int) (types.GeneratedSocial, error) {
	if err := s.checkImage(image); err != nil {
		return types.GeneratedSocial{}, err
	}

	style = gateway.ResolveStyle(style)
	platform = gateway.ResolvePlatform(platform)
	content, err := s.gen.SocialPost(ctx, image, style, platform)
	if err != nil {
		return types.GeneratedSocial{}, mapGatewayError(err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(content); err != nil {
		return types.GeneratedSocial{}, err
	}
	stored := fmt.Sprintf("SOCIAL CONTENT (%s - %s):\n%s", platform, style, bytes.TrimRight(buf.Bytes(), "\n"))

	saved, err := s.images.Save(ctx, userID, image, &stored)
	if err != nil {
		return types.GeneratedSocial{}, err
	}

	return types.GeneratedSocial{
		ImageID:    saved.ID,
		Content:    content,
		Variations: gateway.Variations(content, variations),
	}, nil
}

func (s *ContentService) checkImage(image []byte) error {
	if err := gateway.CheckSize(image, s.maxImageBytes); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func (s *ContentService) saveText(ctx context.Context, userID int, image []byte, result, stored string) (types.GeneratedText, error) {
	saved, err := s.images.Save(ctx, userID, image, &stored)
	if err != nil {
		return types.GeneratedText{}, err
	}
	return types.GeneratedText{ImageID: saved.ID, Text: result}, nil
}

func mapGatewayError(err error) error {
	switch {
	case errors.Is(err, gateway.ErrImageTooLarge),
		errors.Is(err, gateway.ErrUnsupportedImage),
		errors.Is(err, gateway.ErrEmptyText),
		errors.Is(err, gateway.ErrUnsupportedLanguage):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	case errors.Is(err, gateway.ErrModel):
		logger.Log.Errorw("content generation failed", "error", err)
		return fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	default:
		return err
	}
}
