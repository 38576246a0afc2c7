package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

type assistantServiceStub struct {
	chatFn   func(ctx context.Context, userID string, input usecase.ChatInput, w io.Writer) (*domain.ChatSession, error)
	listFn   func(ctx context.Context, userID string) ([]*domain.ChatSession, error)
	getFn    func(ctx context.Context, userID, id string) (*domain.ChatSession, error)
	searchFn func(ctx context.Context, query string) (*domain.HelpAnswer, error)
}

func (s *assistantServiceStub) Chat(ctx context.Context, userID string, input usecase.ChatInput, w io.Writer) (*domain.ChatSession, error) {
	return s.chatFn(ctx, userID, input, w)
}

func (s *assistantServiceStub) ListSessions(ctx context.Context, userID string) ([]*domain.ChatSession, error) {
	return s.listFn(ctx, userID)
}

func (s *assistantServiceStub) GetSession(ctx context.Context, userID, id string) (*domain.ChatSession, error) {
	return s.getFn(ctx, userID, id)
}

func (s *assistantServiceStub) Search(ctx context.Context, query string) (*domain.HelpAnswer, error) {
	return s.searchFn(ctx, query)
}

const chatBody = `{"messages":[{"role":"user","content":"What is my balance?"}]}`

func TestAssistantHandler_Chat_Streams(t *testing.T) {
	var got usecase.ChatInput
	h := NewAssistantHandler(&assistantServiceStub{
		chatFn: func(ctx context.Context, userID string, input usecase.ChatInput, w io.Writer) (*domain.ChatSession, error) {
			got = input
			for _, chunk := range []string{"Your checking ", "balance is ", "$174.50."} {
				if _, err := io.WriteString(w, chunk); err != nil {
					return nil, err
				}
			}
			return &domain.ChatSession{ID: "sess-1", UserID: userID}, nil
		},
	})

	req := withUser(httptest.NewRequest(http.MethodPost, "/assistant/chat", bytes.NewBufferString(chatBody)), "user-1", domain.RoleCustomer)
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, rec.Flushed, "expected chunks to be flushed")
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Your checking balance is $174.50.", rec.Body.String())
	assert.Equal(t, "sess-1", rec.Result().Trailer.Get(ChatSessionTrailer))
	require.Len(t, got.Messages, 1)
	assert.Equal(t, domain.ChatRoleUser, got.Messages[0].Role)
}

func TestAssistantHandler_Chat_ErrorBeforeStream(t *testing.T) {
	h := NewAssistantHandler(&assistantServiceStub{
		chatFn: func(ctx context.Context, userID string, input usecase.ChatInput, w io.Writer) (*domain.ChatSession, error) {
			return nil, domain.ErrAssistantUnavailable
		},
	})

	req := withUser(httptest.NewRequest(http.MethodPost, "/assistant/chat", bytes.NewBufferString(chatBody)), "user-1", domain.RoleCustomer)
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Trailer"))
}

func TestAssistantHandler_Chat_ErrorMidStream(t *testing.T) {
	h := NewAssistantHandler(&assistantServiceStub{
		chatFn: func(ctx context.Context, userID string, input usecase.ChatInput, w io.Writer) (*domain.ChatSession, error) {
			_, _ = io.WriteString(w, "partial")
			return nil, errors.New("stream reset")
		},
	})

	req := withUser(httptest.NewRequest(http.MethodPost, "/assistant/chat", bytes.NewBufferString(chatBody)), "user-1", domain.RoleCustomer)
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
}

func TestAssistantHandler_Chat_Validation(t *testing.T) {
	h := NewAssistantHandler(&assistantServiceStub{})

	for _, body := range []string{`{"messages":[]}`, `{"messages":[{"role":"system","content":"x"}]}`} {
		req := withUser(httptest.NewRequest(http.MethodPost, "/assistant/chat", strings.NewReader(body)), "user-1", domain.RoleCustomer)
		rec := httptest.NewRecorder()
		h.Chat(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestAssistantHandler_ListSessions(t *testing.T) {
	h := NewAssistantHandler(&assistantServiceStub{
		listFn: func(ctx context.Context, userID string) ([]*domain.ChatSession, error) {
			return []*domain.ChatSession{{ID: "sess-1", Name: "Balance questions"}}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.ListSessions(rec, withUser(httptest.NewRequest(http.MethodGet, "/assistant/sessions", nil), "user-1", domain.RoleCustomer))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Balance questions")
}

func TestAssistantHandler_Search(t *testing.T) {
	var got string
	h := NewAssistantHandler(&assistantServiceStub{
		searchFn: func(ctx context.Context, query string) (*domain.HelpAnswer, error) {
			got = query
			return &domain.HelpAnswer{
				Query:  query,
				Answer: "(1) [FAQ] Can I cancel a scheduled bill payment? - Yes, until it runs.",
				Sources: []domain.HelpArticle{
					{Source: domain.HelpSourceFAQ, ID: "faq-bill-cancel", Title: "Can I cancel a scheduled bill payment?", Snippet: "Yes, until it runs."},
				},
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Search(rec, withUser(httptest.NewRequest(http.MethodGet, "/assistant/search?q=cancel+payment", nil), "user-1", domain.RoleCustomer))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancel payment", got)
	assert.JSONEq(t, `{
		"answer": "(1) [FAQ] Can I cancel a scheduled bill payment? - Yes, until it runs.",
		"sources": [{"type": "FAQ", "id": "faq-bill-cancel", "title": "Can I cancel a scheduled bill payment?", "snippet": "Yes, until it runs."}]
	}`, rec.Body.String())
}

func TestAssistantHandler_Search_Unavailable(t *testing.T) {
	h := NewAssistantHandler(&assistantServiceStub{
		searchFn: func(ctx context.Context, query string) (*domain.HelpAnswer, error) {
			return nil, domain.ErrAssistantUnavailable
		},
	})

	rec := httptest.NewRecorder()
	h.Search(rec, withUser(httptest.NewRequest(http.MethodGet, "/assistant/search?q=card", nil), "user-1", domain.RoleCustomer))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
