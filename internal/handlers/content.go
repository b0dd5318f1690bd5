package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/imagetext/apiserver/internal/services"
)

const (
	maxMultipartMemory = 8 << 20
	// multipartOverhead leaves room for form fields and boundaries on top of the image.
	multipartOverhead = 1 << 20

	formFieldImage      = "image"
	formFieldLevel      = "level"
	formFieldKind       = "kind"
	formFieldStyle      = "style"
	formFieldPlatform   = "platform"
	formFieldVariations = "variations"
)

// ContentHandler exposes the content generation actions.
type ContentHandler struct {
	contentService *services.ContentService
	maxImageBytes  int64
}

func NewContentHandler(contentService *services.ContentService, maxImageBytes int64) *ContentHandler {
	return &ContentHandler{contentService: contentService, maxImageBytes: maxImageBytes}
}

// ContentRouter registers content routes. Every route requires authentication.
func ContentRouter(r chi.Router, contentService *services.ContentService, maxImageBytes int64, authMiddleware func(http.Handler) http.Handler) {
	handler := NewContentHandler(contentService, maxImageBytes)

	r.Use(authMiddleware)
	r.Post("/extract", handler.Extract)
	r.Post("/translate", handler.Translate)
	r.Post("/describe", handler.Describe)
	r.Post("/analyze", handler.Analyze)
	r.Post("/social", handler.Social)
}

type TranslateRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (h *ContentHandler) Extract(w http.ResponseWriter, r *http.Request) {
	userID, image, ok := h.upload(w, r)
	if !ok {
		return
	}

	result, err := h.contentService.ExtractText(r.Context(), userID, image)
	if err != nil {
		writeServiceError(w, r, err, "failed to extract text")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Translate is not stored in the gallery.
func (h *ContentHandler) Translate(w http.ResponseWriter, r *http.Request) {
	if _, err := userIDFromContext(r.Context()); err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req TranslateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.contentService.Translate(r.Context(), req.Text, req.Language)
	if err != nil {
		writeServiceError(w, r, err, "failed to translate text")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ContentHandler) Describe(w http.ResponseWriter, r *http.Request) {
	userID, image, ok := h.upload(w, r)
	if !ok {
		return
	}

	result, err := h.contentService.Describe(r.Context(), userID, image, r.FormValue(formFieldLevel))
	if err != nil {
		writeServiceError(w, r, err, "failed to describe image")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *ContentHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	userID, image, ok := h.upload(w, r)
	if !ok {
		return
	}

	result, err := h.contentService.Analyze(r.Context(), userID, image, r.FormValue(formFieldKind))
	if err != nil {
		writeServiceError(w, r, err, "failed to analyze image")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *ContentHandler) Social(w http.ResponseWriter, r *http.Request) {
	userID, image, ok := h.upload(w, r)
	if !ok {
		return
	}

	variations, err := parseOptionalInt(r.FormValue(formFieldVariations))
	if err != nil || variations < 0 {
		writeError(w, http.StatusBadRequest, "invalid variations")
		return
	}

	result, err := h.contentService.Social(
		r.Context(),
		userID,
		image,
		r.FormValue(formFieldStyle),
		r.FormValue(formFieldPlatform),
		variations,
	)
	if err != nil {
		writeServiceError(w, r, err, "failed to generate social content")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// upload authenticates the caller and reads the image form file.
func (h *ContentHandler) upload(w http.ResponseWriter, r *http.Request) (int, []byte, bool) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return 0, nil, false
	}

	if h.maxImageBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return 0, nil, false
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return 0, nil, false
	}

	file, _, err := r.FormFile(formFieldImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s file is required", formFieldImage))
		return 0, nil, false
	}
	defer file.Close()

	data, err := readUpload(file, h.maxImageBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, nil, false
	}
	return userID, data, true
}

func parseOptionalInt(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
