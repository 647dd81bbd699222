package handlers

import (
	"net/http"
	"time"

	"agency-crm-backend/pkg/config"
	"agency-crm-backend/pkg/middleware"
	"agency-crm-backend/pkg/models"
	"agency-crm-backend/pkg/store"
	"agency-crm-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// NotesHandler 笔记处理器
type NotesHandler struct {
	config *config.Config
	store  store.StoreInterface
}

// NewNotesHandler 创建笔记处理器
func NewNotesHandler(cfg *config.Config, s store.StoreInterface) *NotesHandler {
	return &NotesHandler{config: cfg, store: s}
}

// CreateNote 创建笔记，标题和正文至少填一项
func (h *NotesHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	var req models.NoteCreateRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid JSON body")
		return
	}
	if req.Title == "" && req.Body == "" {
		utils.WriteBadRequestResponse(w, "Missing fields")
		return
	}

	note := &models.Note{
		ID:             uuid.New().String(),
		Title:          req.Title,
		Body:           req.Body,
		UserID:         user.Email,
		OrganizationID: user.OrganizationID,
		CreatedAt:      time.Now(),
	}
	if err := h.store.CreateNote(note); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to create note")
		return
	}
	utils.WriteCreatedResponse(w, note)
}

// ListNotes 列出组织内笔记
func (h *NotesHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	notes, err := h.store.ListNotesByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list notes")
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	utils.WriteSuccessResponse(w, notes)
}

// DeleteNote 删除笔记
func (h *NotesHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	id := chi.URLParam(r, "id")
	note, err := h.store.GetNote(id)
	if err != nil {
		utils.WriteNotFoundResponse(w, "Not found")
		return
	}
	if note.OrganizationID != user.OrganizationID {
		utils.WriteForbiddenResponse(w, "Forbidden")
		return
	}

	if err := h.store.DeleteNote(id); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to delete note")
		return
	}
	utils.WriteNoContentResponse(w)
}
