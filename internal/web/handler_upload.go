package web

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const maxPhotoSize = 50 * 1024 * 1024

// photoTypes are the sniffed content types accepted for photo import.
var photoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// sniffPhoto reports the content type of an uploaded photo and whether it is
// one the vision backend accepts. http.DetectContentType has no WebP
// signature, so the RIFF header is matched here.
func sniffPhoto(data []byte) (string, bool) {
	if len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return "image/webp", true
	}
	mimeType := http.DetectContentType(data)
	return mimeType, photoTypes[mimeType]
}

// handleImportPhoto adds the items a vision model detects in an uploaded
// photo of the area. The photo itself is not kept.
func (s *Server) handleImportPhoto(w http.ResponseWriter, r *http.Request) {
	areaID := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		badRequest(w, "failed to parse form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		badRequest(w, "image file required")
		return
	}
	photo, err := io.ReadAll(file)
	if cerr := file.Close(); cerr != nil {
		s.logger.Warn("failed to close upload", "storage_area_id", areaID, "error", cerr)
	}
	if err != nil {
		s.logger.Error("read upload failed", "storage_area_id", areaID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to read file"})
		return
	}

	mimeType, ok := sniffPhoto(photo)
	if !ok {
		s.logger.Info("photo import rejected", "storage_area_id", areaID, "content_type", mimeType)
		badRequest(w, "unsupported image format")
		return
	}

	items, err := s.service.ImportPhoto(r.Context(), areaID, photo, mimeType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: nonNil(items)})
}
