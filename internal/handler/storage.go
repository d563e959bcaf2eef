package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msomdec/captionly/internal/domain"
	"github.com/msomdec/captionly/internal/service"
)

// StorageHandler serves stored objects behind signed URLs.
type StorageHandler struct {
	uploads *service.UploadService
}

// NewStorageHandler creates a new StorageHandler.
func NewStorageHandler(uploads *service.UploadService) *StorageHandler {
	return &StorageHandler{uploads: uploads}
}

// HandleObject streams an object if the token query parameter grants it.
// GET /storage/{bucket}/{path...}?token=...
func (h *StorageHandler) HandleObject(w http.ResponseWriter, r *http.Request) {
	obj, data, err := h.uploads.Open(r.Context(), r.PathValue("bucket"), r.PathValue("path"), r.URL.Query().Get("token"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Not Found", http.StatusNotFound)
		case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrTokenExpired):
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			slog.Error("open object", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if obj.CacheControl != "" {
		w.Header().Set("Cache-Control", "max-age="+obj.CacheControl)
	}
	w.Write(data)
}
