package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/msomdec/captionly/internal/domain"
	"github.com/msomdec/captionly/internal/service"
	"github.com/msomdec/captionly/internal/view"
)

// multipartOverhead is allowed on top of the file limit for form framing.
const multipartOverhead = 64 << 10

// AppHandler serves the caption screen and its upload and caption actions.
type AppHandler struct {
	pages
	profiles *service.ProfileService
	uploads  *service.UploadService
	captions *service.CaptionService
	maxBytes int64
}

// NewAppHandler creates a new AppHandler.
func NewAppHandler(profiles *service.ProfileService, uploads *service.UploadService, captions *service.CaptionService, admin *service.AdminService, maxBytes int64) *AppHandler {
	if maxBytes <= 0 {
		maxBytes = service.DefaultMaxUpload
	}
	return &AppHandler{
		pages:    pages{admin: admin},
		profiles: profiles,
		uploads:  uploads,
		captions: captions,
		maxBytes: maxBytes,
	}
}

type uploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

type captionResponse struct {
	Success bool   `json:"success"`
	Caption string `json:"caption,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleApp renders the caption screen.
func (h *AppHandler) HandleApp(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
		return
	}

	usage, err := h.profiles.Usage(r.Context(), identity.ID)
	if err != nil {
		slog.Error("get usage", "identity_id", identity.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	view.AppPage(view.AppData{Page: h.page(r, "App"), Usage: usage}).Render(r.Context(), w)
}

// HandleUpload stores an uploaded image and returns a signed URL for it.
// POST /app/upload (multipart, field "file")
// Response: {"success":true,"url":"..."} or {"success":false,"error":"..."}
func (h *AppHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		writeJSON(w, http.StatusUnauthorized, uploadResponse{Error: "Unauthorized"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, uploadResponse{Error: "File size too large. Maximum size is 5MB"})
			return
		}
		writeJSON(w, http.StatusBadRequest, uploadResponse{Error: "No file provided"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, uploadResponse{Error: "File size too large. Maximum size is 5MB"})
		return
	}

	// The stored type comes from the bytes, not the multipart header.
	up, err := h.uploads.Upload(r.Context(), identity.ID, data)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeJSON(w, http.StatusUnprocessableEntity, uploadResponse{Error: inputMessage(err)})
			return
		}
		slog.Error("upload image", "identity_id", identity.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Error: "Upload failed"})
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{Success: true, URL: up.SignedURL})
}

// HandleCaption generates a caption for an image URL.
// POST /app/caption (form field "imageUrl")
// Response: {"success":true,"caption":"..."} or {"success":false,"error":"..."}
func (h *AppHandler) HandleCaption(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		writeJSON(w, http.StatusUnauthorized, captionResponse{Error: "Unauthorized"})
		return
	}

	g, err := h.captions.Generate(r.Context(), identity.ID, r.PostFormValue("imageUrl"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeJSON(w, http.StatusUnprocessableEntity, captionResponse{Error: inputMessage(err)})
			return
		}
		slog.Error("generate caption", "identity_id", identity.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, captionResponse{Error: "Caption generation failed"})
		return
	}

	writeJSON(w, http.StatusOK, captionResponse{Success: true, Caption: g.Caption})
}

// inputMessage strips the ErrInvalidInput prefix from a wrapped error.
func inputMessage(err error) string {
	return strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
}
