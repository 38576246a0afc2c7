package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/finovo/bankcore/internal/adapter/http/dto"
	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/infrastructure/logger"
	"github.com/finovo/bankcore/internal/usecase"
)

// ChatSessionTrailer is sent after the streamed reply with the session ID.
const ChatSessionTrailer = "X-Chat-Session-ID"

// AssistantService defines the behavior needed by AssistantHandler.
type AssistantService interface {
	Chat(ctx context.Context, userID string, input usecase.ChatInput, w io.Writer) (*domain.ChatSession, error)
	ListSessions(ctx context.Context, userID string) ([]*domain.ChatSession, error)
	GetSession(ctx context.Context, userID, id string) (*domain.ChatSession, error)
	Search(ctx context.Context, query string) (*domain.HelpAnswer, error)
}

// AssistantHandler handles AI assistant requests.
type AssistantHandler struct {
	assistantUC AssistantService
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(assistantUC AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantUC: assistantUC}
}

// Chat streams the assistant's reply as plain text, flushing each chunk.
// Errors before the first chunk are returned as JSON.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.ChatRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	w.Header().Set("Trailer", ChatSessionTrailer)
	sw := &streamWriter{w: w, rc: http.NewResponseController(w)}

	session, err := h.assistantUC.Chat(r.Context(), user.ID, req.ToUseCaseInput(), sw)
	if err != nil {
		if !sw.started {
			w.Header().Del("Trailer")
			respondError(w, r, "assistant request failed", err)
			return
		}
		log := logger.FromContext(r.Context(), zerolog.Nop())
		log.Warn().Err(err).Msg("assistant stream interrupted")
		return
	}

	if !sw.started {
		sw.start()
	}
	w.Header().Set(ChatSessionTrailer, session.ID)
}

// ListSessions lists the user's chat sessions.
func (h *AssistantHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	sessions, err := h.assistantUC.ListSessions(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, "failed to list sessions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ChatSessionsFromDomain(sessions))
}

// GetSession returns one chat session with its messages.
func (h *AssistantHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	session, err := h.assistantUC.GetSession(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "failed to get session", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ChatSessionFromDomain(session))
}

// Search answers a question from the FAQs and notices.
func (h *AssistantHandler) Search(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	answer, err := h.assistantUC.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, r, "help search failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HelpAnswerFromDomain(answer))
}

// streamWriter commits the text/plain headers on the first write and
// flushes after every chunk.
type streamWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
}

func (s *streamWriter) start() {
	s.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	s.w.Header().Set("Cache-Control", "no-cache")
	s.w.Header().Set("X-Content-Type-Options", "nosniff")
	s.w.WriteHeader(http.StatusOK)
	s.started = true
}

func (s *streamWriter) Write(p []byte) (int, error) {
	if !s.started {
		s.start()
	}
	n, err := s.w.Write(p)
	if err != nil {
		return n, err
	}
	// Writers that cannot flush still deliver the body at the end.
	_ = s.rc.Flush()
	return n, nil
}
