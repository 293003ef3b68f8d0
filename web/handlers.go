package web

import (
	"encoding/json"
	goerrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"babelroom/domain"
	"babelroom/errors"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Language string `json:"language"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type roomResponse struct {
	Code      string    `json:"code"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type messageResponse struct {
	ID      string    `json:"id"`
	Sender  string    `json:"sender"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

type historyResponse struct {
	Messages []messageResponse `json:"messages"`
	Cursor   *string           `json:"cursor,omitempty"`
}

type searchHitResponse struct {
	MessageID string `json:"messageId"`
	Author    string `json:"author"`
	Content   string `json:"content"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	token, err := s.authService.Register(req.Email, req.Password, domain.LocaleCode(req.Language))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token.String()})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	token, err := s.authService.Login(req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token.String()})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	viewer := viewerFrom(r)

	room, err := s.chatService.CreateRoom(viewer.ID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoomResponse(room))
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	code := domain.NormalizeRoomCode(chi.URLParam(r, "code"))

	room, err := s.chatService.GetRoom(code)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomResponse(room))
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	code := domain.NormalizeRoomCode(chi.URLParam(r, "code"))

	if _, err := s.chatService.GetRoom(code); err != nil {
		s.writeServiceError(w, err)
		return
	}

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	messages, next, err := s.chatService.GetMessages(domain.GetMessagesCommand{Room: code, Cursor: cursor})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	resp := historyResponse{Cursor: next, Messages: make([]messageResponse, 0, len(messages))}
	for _, msg := range messages {
		resp.Messages = append(resp.Messages, messageResponse{
			ID:      msg.ID.String(),
			Sender:  msg.Sender,
			Content: msg.Content,
			At:      msg.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	code := domain.NormalizeRoomCode(chi.URLParam(r, "code"))
	terms := r.URL.Query().Get("q")
	if terms == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	limit := s.limitResults
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed < limit {
			limit = parsed
		}
	}

	hits, err := s.chatService.Search(r.Context(), code, terms, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	resp := make([]searchHitResponse, 0, len(hits))
	for _, hit := range hits {
		resp = append(resp, searchHitResponse{
			MessageID: hit.MessageID,
			Author:    hit.Author,
			Content:   hit.Content,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

// writeServiceError maps domain errors onto HTTP statuses. Unknown errors are
// logged server-side and surfaced as an opaque 500.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case goerrors.As(err, &validationErrs):
		writeError(w, http.StatusBadRequest, validationErrs.Error())
	case goerrors.Is(err, errors.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "room not found")
	case goerrors.Is(err, errors.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case goerrors.Is(err, errors.ErrUserAlreadyExists):
		writeError(w, http.StatusConflict, "email already registered")
	case goerrors.Is(err, errors.ErrEmptyMessage),
		goerrors.Is(err, errors.ErrInvalidPassword),
		goerrors.Is(err, errors.ErrUnsupportedLanguage):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func toRoomResponse(room domain.Room) roomResponse {
	return roomResponse{
		Code:      string(room.Code),
		CreatedBy: room.CreatedBy,
		CreatedAt: room.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
