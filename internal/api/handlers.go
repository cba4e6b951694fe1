package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"gwi.com/chat-core/internal/auth"
	"gwi.com/chat-core/internal/core"
	"gwi.com/chat-core/internal/events"
)

type APIHandler struct {
	chatService *core.ChatService
	verifier    *auth.TokenVerifier
	bus         *events.Bus
	limiter     *limiterPool
	logger      zerolog.Logger
}

// RateLimitConfig sets the per-caller token bucket for throttled routes.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

func NewAPIHandler(cs *core.ChatService, verifier *auth.TokenVerifier, bus *events.Bus, limits RateLimitConfig, logger zerolog.Logger) *APIHandler {
	return &APIHandler{
		chatService: cs,
		verifier:    verifier,
		bus:         bus,
		limiter:     newLimiterPool(limits.RPS, limits.Burst),
		logger:      logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *APIHandler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *APIHandler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// writeError maps service errors onto HTTP statuses. Anything unrecognised is
// logged and reported as a 500 without details.
func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrUnauthenticated):
		h.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, core.ErrAccessDenied), errors.Is(err, core.ErrNotAllowed):
		h.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrNotFound):
		h.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidArgument):
		h.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request failed")
		h.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Users

func (h *APIHandler) SyncUserHandler(w http.ResponseWriter, r *http.Request) {
	// The profile is optional; an empty body syncs a bare record.
	var req core.Profile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	id, err := h.chatService.UpsertUser(r.Context(), auth.CallerFromContext(r.Context()), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"id": id})
}

type SetOnlineRequest struct {
	Online bool `json:"online"`
}

func (h *APIHandler) SetOnlineHandler(w http.ResponseWriter, r *http.Request) {
	var req SetOnlineRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.chatService.SetOnline(r.Context(), auth.CallerFromContext(r.Context()), req.Online); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.chatService.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, users)
}

func (h *APIHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.chatService.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, user)
}

// Conversations

type CreateDirectRequest struct {
	OtherUserID string `json:"otherUserId"`
}

type CreateGroupRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"memberIds"`
}

type ConversationIDResponse struct {
	ID string `json:"id"`
}

func (h *APIHandler) CreateDirectHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateDirectRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.chatService.GetOrCreateDirect(r.Context(), auth.CallerFromContext(r.Context()), req.OtherUserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, ConversationIDResponse{ID: id})
}

func (h *APIHandler) CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.chatService.CreateGroup(r.Context(), auth.CallerFromContext(r.Context()), req.Name, req.MemberIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, ConversationIDResponse{ID: id})
}

func (h *APIHandler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	convs, err := h.chatService.ListForCaller(r.Context(), auth.CallerFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, convs)
}

func (h *APIHandler) ListPreviewsHandler(w http.ResponseWriter, r *http.Request) {
	previews, err := h.chatService.ListWithPreview(r.Context(), auth.CallerFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, previews)
}

func (h *APIHandler) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	conv, err := h.chatService.GetByID(r.Context(), chi.URLParam(r, "conversationID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, conv)
}

// Messages

type PostMessageRequest struct {
	Content string `json:"content"`
}

func (h *APIHandler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.chatService.List(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "conversationID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, msgs)
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if !h.decode(w, r, &req) {
		return
	}

	msg, err := h.chatService.Send(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "conversationID"), req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, msg)
}

func (h *APIHandler) DeleteMessageHandler(w http.ResponseWriter, r *http.Request) {
	err := h.chatService.SoftDelete(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "messageID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ToggleReactionRequest struct {
	Emoji string `json:"emoji"`
}

func (h *APIHandler) ToggleReactionHandler(w http.ResponseWriter, r *http.Request) {
	var req ToggleReactionRequest
	if !h.decode(w, r, &req) {
		return
	}

	reactions, err := h.chatService.ToggleReaction(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "messageID"), req.Emoji)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	emoji := make(map[string]string, len(reactions))
	for key := range reactions {
		emoji[key] = core.ReactionEmoji(key)
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"reactions": reactions, "emoji": emoji})
}

// Read receipts

type MarkReadRequest struct {
	LastReadAt int64 `json:"lastReadAt"`
}

func (h *APIHandler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	var req MarkReadRequest
	if !h.decode(w, r, &req) {
		return
	}

	mark, err := h.chatService.MarkRead(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "conversationID"), req.LastReadAt)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, mark)
}

func (h *APIHandler) GetReadHandler(w http.ResponseWriter, r *http.Request) {
	mark, err := h.chatService.GetRead(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "conversationID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, mark)
}

func (h *APIHandler) ListReadsHandler(w http.ResponseWriter, r *http.Request) {
	marks, err := h.chatService.ListAllReads(r.Context(), auth.CallerFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, marks)
}

// Typing

type SetTypingRequest struct {
	Typing bool `json:"typing"`
}

func (h *APIHandler) SetTypingHandler(w http.ResponseWriter, r *http.Request) {
	var req SetTypingRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.chatService.SetTyping(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "conversationID"), req.Typing)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListTypingHandler(w http.ResponseWriter, r *http.Request) {
	typing, err := h.chatService.ListTyping(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "conversationID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, typing)
}
