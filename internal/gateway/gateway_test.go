package gateway

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/imagetext/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedReply struct {
	text string
	err  error
}

// fakeGenerator answers per model and records every request.
type fakeGenerator struct {
	replies  map[string]scriptedReply
	requests []Request
}

func (f *fakeGenerator) Generate(_ context.Context, req Request) (string, error) {
	f.requests = append(f.requests, req)
	reply, ok := f.replies[req.Model]
	if !ok {
		return "", errors.New("model not available")
	}
	return reply.text, reply.err
}

func (f *fakeGenerator) models() []string {
	models := make([]string, 0, len(f.requests))
	for _, req := range f.requests {
		models = append(models, req.Model)
	}
	return models
}

func testConfig() config.GatewayConfig {
	return config.GatewayConfig{
		Model:          "main",
		SocialModel:    "social",
		FallbackModels: []string{"alt-1", "alt-2"},
		MaxImageBytes:  5 << 20,
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestCheckSize(t *testing.T) {
	assert.NoError(t, CheckSize([]byte{1, 2, 3}, 3))
	assert.NoError(t, CheckSize([]byte{1, 2, 3}, 0))
	assert.ErrorIs(t, CheckSize([]byte{1, 2, 3, 4}, 3), ErrImageTooLarge)
	assert.ErrorIs(t, CheckSize(nil, 3), ErrUnsupportedImage)
}

func TestNormalizePNG(t *testing.T) {
	pngData := testPNG(t)
	out, err := NormalizePNG(pngData)
	require.NoError(t, err)
	assert.Equal(t, pngData, out)

	out, err = NormalizePNG(testJPEG(t))
	require.NoError(t, err)
	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	_, err = NormalizePNG([]byte("not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestExtractText(t *testing.T) {
	gen := &fakeGenerator{replies: map[string]scriptedReply{"main": {text: "HELLO"}}}
	client := NewClient(gen, testConfig())

	text, err := client.ExtractText(context.Background(), testJPEG(t))
	require.NoError(t, err)
	assert.Equal(t, "HELLO", text)
	require.Len(t, gen.requests, 1)
	assert.Equal(t, extractPrompt, gen.requests[0].Prompt)
	assert.NotEmpty(t, gen.requests[0].Image)
}

func TestExtractText_ModelFailure(t *testing.T) {
	gen := &fakeGenerator{replies: map[string]scriptedReply{"main": {err: errors.New("quota exceeded")}}}
	client := NewClient(gen, testConfig())

	_, err := client.ExtractText(context.Background(), testPNG(t))
	assert.ErrorIs(t, err, ErrModel)
}

func TestExtractText_NoTextIsNotAnError(t *testing.T) {
	gen := &fakeGenerator{replies: map[string]scriptedReply{"main": {text: "  \n"}}}
	client := NewClient(gen, testConfig())

	text, err := client.ExtractText(context.Background(), testPNG(t))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestDescribe_BlankReplyIsModelError(t *testing.T) {
	gen := &fakeGenerator{replies: map[string]scriptedReply{"main": {text: "   "}}}
	client := NewClient(gen, testConfig())

	_, err := client.Describe(context.Background(), testPNG(t), LevelBrief)
	assert.ErrorIs(t, err, ErrModel)
}

func TestTranslate(t *testing.T) {
	gen := &fakeGenerator{replies: map[string]scriptedReply{"main": {text: "Hola"}}}
	client := NewClient(gen, testConfig())
	ctx := context.Background()

	text, err := client.Translate(ctx, "Hello", "Español")
	require.NoError(t, err)
	assert.Equal(t, "Hola", text)
	assert.Contains(t, gen.requests[0].Prompt, "code 'es'")
	assert.Contains(t, gen.requests[0].Prompt, "Hello")
	assert.Empty(t, gen.requests[0].Image)

	_, err = client.Translate(ctx, "  ", "english")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = client.Translate(ctx, "Hello", "klingon")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	assert.Len(t, gen.requests, 1)
}

func TestLanguageCode(t *testing.T) {
	cases := map[string]string{
		"español":  "es",
		"Catalan":  "ca",
		" inglés ": "en",
		"japonés":  "ja",
		"de":       "de",
	}
	for name, want := range cases {
		code, ok := LanguageCode(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, code, name)
	}

	_, ok := LanguageCode("latin")
	assert.False(t, ok)
}

func TestDescribeAndAnalyzeUseResolvedPrompts(t *testing.T) {
	gen := &fakeGenerator{replies: map[string]scriptedReply{"main": {text: "ok"}}}
	client := NewClient(gen, testConfig())
	ctx := context.Background()
	img := testPNG(t)

	_, err := client.Describe(ctx, img, "detallado")
	require.NoError(t, err)
	_, err = client.Describe(ctx, img, "whatever")
	require.NoError(t, err)
	_, err = client.Analyze(ctx, img, "técnico")
	require.NoError(t, err)
	_, err = client.Analyze(ctx, img, "")
	require.NoError(t, err)

	require.Len(t, gen.requests, 4)
	assert.Equal(t, describePrompts[LevelDetailed], gen.requests[0].Prompt)
	assert.Equal(t, describePrompts[LevelNormal], gen.requests[1].Prompt)
	assert.Equal(t, analysisPrompts[AnalysisTechnical], gen.requests[2].Prompt)
	assert.Equal(t, analysisPrompts[AnalysisGeneral], gen.requests[3].Prompt)
}

func TestDescribe_RejectsUndecodableImage(t *testing.T) {
	gen := &fakeGenerator{}
	client := NewClient(gen, testConfig())

	_, err := client.Describe(context.Background(), []byte("garbage"), LevelBrief)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
	assert.Empty(t, gen.requests)
}
