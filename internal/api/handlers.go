package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/roundup/internal/models"
	"github.com/starford/roundup/internal/workflow"
)

const maxJSONBody = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc      *workflow.Service
	maxBytes int64
}

// NewHandler creates a new Handler. maxBytes bounds uploaded content.
func NewHandler(svc *workflow.Service, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = workflow.DefaultMaxBytes
	}
	return &Handler{svc: svc, maxBytes: maxBytes}
}

func (h *Handler) bodyLimit() int64 {
	// Room for JSON escaping and the envelope around the content.
	return 2*h.maxBytes + maxJSONBody
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List uploaded documents
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.ListDocuments(r.Context())
	if err != nil {
		writeError(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: docs})
}

// CreateDocument handles POST /api/documents.
//
//	@Summary		Upload a chat log as a JSON body
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDocumentRequest	true	"Chat log"
//	@Success		201		{object}	UploadResponse
//	@Success		200		{object}	UploadResponse	"Duplicate content"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if !decodeJSON(w, r, h.bodyLimit(), &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.upload(w, r, req.Filename, []byte(req.Content), req.ContentType)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, filename string, content []byte, contentType string) {
	doc, created, err := h.svc.Upload(r.Context(), filename, content, contentType)
	if err != nil {
		writeError(w, "upload document", err, slog.String("filename", filename))
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, UploadResponse{Document: doc, Created: created})
}

// GetDocument handles GET /api/documents/{id}.
//
//	@Summary		Get a document with its raw and cleaned content
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		string	true	"Document ID"
//	@Success		200	{object}	models.Document
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.svc.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, "get document", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /api/documents/{id}.
//
//	@Summary		Delete a document with its rounds and chapters
//	@Tags			documents
//	@Param			id	path	string	true	"Document ID"
//	@Success		204	"Document deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteDocument(r.Context(), id); err != nil {
		writeError(w, "delete document", err, slog.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CleanDocument handles POST /api/documents/{id}/clean.
//
//	@Summary		Normalize a document into canonical text
//	@Tags			workflow
//	@Produce		json
//	@Param			id	path		string	true	"Document ID"
//	@Success		200	{object}	models.Document
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/clean [post]
func (h *Handler) CleanDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.svc.Clean(r.Context(), id)
	if err != nil {
		writeError(w, "clean document", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// SaveCleaned handles PUT /api/documents/{id}/cleaned.
//
//	@Summary		Replace the canonical text with an edited version
//	@Tags			workflow
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Document ID"
//	@Param			body	body		SaveCleanedRequest	true	"Canonical text"
//	@Success		200		{object}	models.Document
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/cleaned [put]
func (h *Handler) SaveCleaned(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req SaveCleanedRequest
	if !decodeJSON(w, r, h.bodyLimit(), &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	doc, err := h.svc.SaveCleaned(r.Context(), id, req.Content)
	if err != nil {
		writeError(w, "save cleaned", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// UpdateStep handles PUT /api/documents/{id}/step.
//
//	@Summary		Record the workflow step a document reached
//	@Tags			workflow
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Document ID"
//	@Param			body	body		UpdateStepRequest	true	"Step (1-4)"
//	@Success		200		{object}	models.Document
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/step [put]
func (h *Handler) UpdateStep(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateStepRequest
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	doc, err := h.svc.UpdateStep(r.Context(), id, models.Step(req.Step))
	if err != nil {
		writeError(w, "update step", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ParseRounds handles POST /api/documents/{id}/rounds.
//
//	@Summary		Segment the cleaned text into rounds, replacing stored ones
//	@Tags			rounds
//	@Produce		json
//	@Param			id	path		string	true	"Document ID"
//	@Success		200	{object}	workflow.ParseResult
//	@Failure		404	{object}	errResponse
//	@Failure		422	{object}	errResponse	"Document not cleaned"
//	@Security		BearerAuth
//	@Router			/documents/{id}/rounds [post]
func (h *Handler) ParseRounds(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := h.svc.ParseRounds(r.Context(), id)
	if err != nil {
		writeError(w, "parse rounds", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListRounds handles GET /api/documents/{id}/rounds.
//
//	@Summary		List the stored rounds of a document
//	@Tags			rounds
//	@Produce		json
//	@Param			id	path		string	true	"Document ID"
//	@Success		200	{object}	RoundListResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/rounds [get]
func (h *Handler) ListRounds(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	list, err := h.svc.ListRounds(r.Context(), id)
	if err != nil {
		writeError(w, "list rounds", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, RoundListResponse{Rounds: list})
}

// UpdateRound handles PUT /api/rounds/{id}.
//
//	@Summary		Edit the number and content of a round
//	@Tags			rounds
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Round ID"
//	@Param			body	body		UpdateRoundRequest	true	"Round edit"
//	@Success		200		{object}	models.Round
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/rounds/{id} [put]
func (h *Handler) UpdateRound(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateRoundRequest
	if !decodeJSON(w, r, h.bodyLimit(), &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	round, err := h.svc.UpdateRound(r.Context(), id, req.RoundNumber, req.Content)
	if err != nil {
		writeError(w, "update round", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, round)
}

// Search handles GET /api/search.
//
//	@Summary		Search round content across documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.SearchRounds(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Normalize handles POST /api/normalize.
//
//	@Summary		Preview canonical text without storing it
//	@Tags			workflow
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NormalizeRequest	true	"Raw text"
//	@Success		200		{object}	NormalizeResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/normalize [post]
func (h *Handler) Normalize(w http.ResponseWriter, r *http.Request) {
	var req NormalizeRequest
	if !decodeJSON(w, r, h.bodyLimit(), &req) {
		return
	}
	rules := h.svc.Rules()
	if req.UserMarker != "" {
		rules.UserMarker = req.UserMarker
	}
	if req.AssistantMarker != "" {
		rules.AssistantMarker = req.AssistantMarker
	}
	writeJSON(w, http.StatusOK, NormalizeResponse{Content: rules.Apply(req.Content)})
}
