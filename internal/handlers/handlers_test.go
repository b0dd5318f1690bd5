package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/imagetext/apiserver/config"
	"github.com/imagetext/apiserver/internal/db"
	"github.com/imagetext/apiserver/internal/gateway"
	"github.com/imagetext/apiserver/internal/services"
	"github.com/imagetext/apiserver/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

// stubGenerator answers every model call with the same reply.
type stubGenerator struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []gateway.Request
}

func (s *stubGenerator) Generate(_ context.Context, req gateway.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.reply, s.err
}

type memoryArchive struct {
	keys []string
}

func (m *memoryArchive) PutJSON(_ context.Context, key string, _ any) error {
	m.keys = append(m.keys, key)
	return nil
}

type testAPI struct {
	router   http.Handler
	gen      *stubGenerator
	archive  *memoryArchive
	maxBytes int64
}

type apiOption func(*apiOptions)

type apiOptions struct {
	archive bool
}

func withArchive() apiOption {
	return func(o *apiOptions) { o.archive = true }
}

func newTestAPI(t *testing.T, opts ...apiOption) *testAPI {
	t.Helper()

	var o apiOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx := context.Background()
	dbCfg := config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "handlers.db"),
	}
	require.NoError(t, db.Migrate(ctx, dbCfg, db.Up))
	conn, err := db.Open(ctx, dbCfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	api := &testAPI{
		gen:      &stubGenerator{reply: "hello world"},
		maxBytes: 64 << 10,
	}

	userRepo := store.NewUserRepository(conn)
	imageRepo := store.NewImageRepository(conn)

	var archiver services.ExportArchiver
	if o.archive {
		api.archive = &memoryArchive{}
		archiver = api.archive
	}

	userService := services.NewUserService(userRepo)
	imageService := services.NewImageService(imageRepo, nil)
	statsService := services.NewStatsService(store.NewStatsRepository(conn), userRepo, imageRepo, archiver)
	gatewayCfg := config.GatewayConfig{
		Model:          "main",
		SocialModel:    "social",
		FallbackModels: []string{"alt"},
		MaxImageBytes:  api.maxBytes,
	}
	contentService := services.NewContentService(gateway.NewClient(api.gen, gatewayCfg), imageService, api.maxBytes)

	auth := RequireAuth(testSecret)
	r := chi.NewRouter()
	r.Use(LoggingMiddleware(zap.NewNop().Sugar()))
	r.Get("/healthz", Healthz)
	r.Route("/auth", func(r chi.Router) {
		AuthRouter(r, userService, testSecret, time.Hour)
	})
	r.Route("/images", func(r chi.Router) {
		ImageRouter(r, imageService, auth)
	})
	r.Route("/content", func(r chi.Router) {
		ContentRouter(r, contentService, api.maxBytes, auth)
	})
	r.Route("/stats", func(r chi.Router) {
		StatsRouter(r, statsService, auth)
	})

	api.router = r
	return api
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) upload(t *testing.T, path, token string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if data != nil {
		part, err := mw.CreateFormFile("image", "upload.png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns its token.
func (a *testAPI) register(t *testing.T, email string) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/auth/register", "", CredentialsRequest{Email: email, Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp AuthResponse
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
