package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// multipartOverhead is the allowance for form boundaries and headers.
const multipartOverhead = 1 << 20

// UploadFile handles POST /api/documents/upload (multipart/form-data, field "file").
//
//	@Summary		Upload a chat log file
//	@Tags			documents
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Chat log (.txt, .md, .json)"
//	@Success		201		{object}	UploadResponse
//	@Success		200		{object}	UploadResponse	"Duplicate content"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/upload [post]
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(h.maxBytes + multipartOverhead); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name := filepath.Base(filepath.Clean(header.Filename))
	if name == "" || name == "." || strings.Contains(name, "..") {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid filename"))
		return
	}

	// One byte past the limit lets the service report oversize content.
	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	h.upload(w, r, name, data, header.Header.Get("Content-Type"))
}
