package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/imagetext/apiserver/internal/services"
	"github.com/imagetext/apiserver/types"
)

// maxBulkDelete bounds the id list accepted by one bulk delete.
const maxBulkDelete = 1000

// ImageHandler serves the caller's gallery.
type ImageHandler struct {
	imageService *services.ImageService
}

func NewImageHandler(imageService *services.ImageService) *ImageHandler {
	return &ImageHandler{imageService: imageService}
}

// ImageRouter registers gallery routes. Every route requires authentication.
func ImageRouter(r chi.Router, imageService *services.ImageService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewImageHandler(imageService)

	r.Use(authMiddleware)
	r.Get("/", handler.List)
	r.Post("/delete", handler.DeleteMany)
	r.Route("/{imageID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Get("/blob", handler.Blob)
		r.Delete("/", handler.Delete)
	})
}

type ImageListResponse struct {
	Items []types.Image `json:"items"`
	Total int           `json:"total"`
}

type BulkDeleteRequest struct {
	IDs []int `json:"ids"`
}

type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

type BulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}

// List returns the caller's images newest first, without blobs.
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	images, err := h.imageService.ListMeta(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "failed to list images")
		return
	}

	writeJSON(w, http.StatusOK, ImageListResponse{Items: images, Total: len(images)})
}

func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, imageID, ok := h.scope(w, r)
	if !ok {
		return
	}

	image, err := h.imageService.Get(r.Context(), imageID, userID)
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch image")
		return
	}

	writeJSON(w, http.StatusOK, image)
}

// Blob streams the stored bytes with a sniffed content type.
func (h *ImageHandler) Blob(w http.ResponseWriter, r *http.Request) {
	userID, imageID, ok := h.scope(w, r)
	if !ok {
		return
	}

	image, err := h.imageService.Get(r.Context(), imageID, userID)
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch image")
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(image.Blob))
	w.Header().Set("Content-Length", strconv.Itoa(len(image.Blob)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(image.Blob)
}

// Delete removes one image. Missing and foreign images both answer deleted=false.
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, imageID, ok := h.scope(w, r)
	if !ok {
		return
	}

	deleted, err := h.imageService.DeleteOne(r.Context(), imageID, userID)
	if err != nil {
		writeServiceError(w, r, err, "failed to delete image")
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: deleted})
}

func (h *ImageHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req BulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.IDs) > maxBulkDelete {
		writeError(w, http.StatusBadRequest, "too many ids")
		return
	}

	removed, err := h.imageService.DeleteMany(r.Context(), req.IDs, userID)
	if err != nil {
		writeServiceError(w, r, err, "failed to delete images")
		return
	}

	writeJSON(w, http.StatusOK, BulkDeleteResponse{Deleted: removed})
}

// scope resolves the caller and the image id, writing the error response itself.
func (h *ImageHandler) scope(w http.ResponseWriter, r *http.Request) (userID, imageID int, ok bool) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return 0, 0, false
	}

	imageID, err = parseIDParam(r, "imageID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}
	return userID, imageID, true
}
