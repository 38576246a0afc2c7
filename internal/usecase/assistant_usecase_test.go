package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/infrastructure/metrics"
	"github.com/finovo/bankcore/internal/usecase"
	"github.com/finovo/bankcore/internal/usecase/mocks"
)

func userSays(content string) []domain.ChatMessage {
	return []domain.ChatMessage{{Role: domain.ChatRoleUser, Content: content}}
}

func streamChunks(chunks ...string) func(context.Context, string, []domain.ChatMessage, func(string) error) error {
	return func(_ context.Context, _ string, _ []domain.ChatMessage, emit func(string) error) error {
		for _, c := range chunks {
			if err := emit(c); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestAssistantUseCase_Chat(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)
	chats := mocks.NewMockChatRepository()
	acc := checking("acc-a", alice, "1234.50")
	acc.AccountNumber = "000011112222"
	accounts := mocks.NewMockAccountRepository(acc)
	m := metrics.New(prometheus.NewRegistry())

	uc := usecase.NewAssistantUseCase(completer, chats, accounts, m, nopLogger())

	var prompt string
	completer.EXPECT().
		Stream(gomock.Any(), gomock.Any(), gomock.Len(1), gomock.Any()).
		DoAndReturn(func(ctx context.Context, systemPrompt string, history []domain.ChatMessage, emit func(string) error) error {
			prompt = systemPrompt
			return streamChunks("You spent ", "$42 ", "on coffee.")(ctx, systemPrompt, history, emit)
		})

	var out bytes.Buffer
	session, err := uc.Chat(t.Context(), alice, usecase.ChatInput{Messages: userSays("How much did I spend on coffee this month?")}, &out)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if out.String() != "You spent $42 on coffee." {
		t.Fatalf("unexpected streamed reply: %q", out.String())
	}
	if !strings.Contains(prompt, "ending 2222") || !strings.Contains(prompt, "1234.50 USD") {
		t.Fatalf("expected account summary in prompt, got %q", prompt)
	}

	if session.Name != "How much did I spend on coffee this mont..." {
		t.Fatalf("unexpected session name %q", session.Name)
	}
	if len(session.Messages) != 2 || session.Messages[1].Role != domain.ChatRoleAssistant {
		t.Fatalf("expected question and answer, got %+v", session.Messages)
	}

	stored, err := uc.GetSession(t.Context(), alice, session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if stored.Messages[1].Content != "You spent $42 on coffee." {
		t.Fatalf("unexpected stored answer %q", stored.Messages[1].Content)
	}
	if got := testutil.ToFloat64(m.AssistantRequests.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected one successful request, got %v", got)
	}
}

func TestAssistantUseCase_Chat_ContinuesSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)
	chats := mocks.NewMockChatRepository()
	uc := usecase.NewAssistantUseCase(completer, chats, nil, nil, nopLogger())

	now := time.Now().UTC()
	if err := chats.CreateSession(t.Context(), &domain.ChatSession{ID: "s-1", UserID: alice, Name: "Budget", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatal(err)
	}

	completer.EXPECT().Stream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(streamChunks("Sure."))

	var out bytes.Buffer
	if _, err := uc.Chat(t.Context(), bob, usecase.ChatInput{SessionID: "s-1", Messages: userSays("hi")}, &out); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for another user's session, got %v", err)
	}

	session, err := uc.Chat(t.Context(), alice, usecase.ChatInput{SessionID: "s-1", Messages: userSays("Help me budget")}, &out)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if session.ID != "s-1" || len(session.Messages) != 2 {
		t.Fatalf("expected the existing session to grow, got %+v", session)
	}

	sessions, err := uc.ListSessions(t.Context(), alice)
	if err != nil || len(sessions) != 1 {
		t.Fatalf("expected one session, got %d (%v)", len(sessions), err)
	}
}

func TestAssistantUseCase_Chat_EmptyConversation(t *testing.T) {
	ctrl := gomock.NewController(t)
	uc := usecase.NewAssistantUseCase(mocks.NewMockCompleter(ctrl), mocks.NewMockChatRepository(), nil, nil, nopLogger())

	inputs := [][]domain.ChatMessage{
		nil,
		{{Role: domain.ChatRoleAssistant, Content: "Hello"}},
		userSays("   "),
	}
	for _, msgs := range inputs {
		var out bytes.Buffer
		if _, err := uc.Chat(t.Context(), alice, usecase.ChatInput{Messages: msgs}, &out); !errors.Is(err, domain.ErrEmptyConversation) {
			t.Fatalf("expected ErrEmptyConversation, got %v", err)
		}
	}
}

func TestAssistantUseCase_Chat_CompleterFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)
	m := metrics.New(prometheus.NewRegistry())
	uc := usecase.NewAssistantUseCase(completer, mocks.NewMockChatRepository(), nil, m, nopLogger())

	boom := errors.New("quota exceeded")
	completer.EXPECT().Stream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(boom)

	var out bytes.Buffer
	_, err := uc.Chat(t.Context(), alice, usecase.ChatInput{Messages: userSays("hello")}, &out)
	if !errors.Is(err, domain.ErrAssistantUnavailable) {
		t.Fatalf("expected ErrAssistantUnavailable, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected nothing written, got %q", out.String())
	}

	// A failure mid-stream keeps the partial reply and returns the cause.
	completer.EXPECT().Stream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ []domain.ChatMessage, emit func(string) error) error {
			_ = emit("partial")
			return boom
		})
	_, err = uc.Chat(t.Context(), alice, usecase.ChatInput{Messages: userSays("hello")}, &out)
	if !errors.Is(err, boom) || errors.Is(err, domain.ErrAssistantUnavailable) {
		t.Fatalf("expected the stream error, got %v", err)
	}
	if out.String() != "partial" {
		t.Fatalf("expected partial output, got %q", out.String())
	}
	if got := testutil.ToFloat64(m.AssistantRequests.WithLabelValues("error")); got != 2 {
		t.Fatalf("expected two errors, got %v", got)
	}
}

func TestAssistantUseCase_Chat_HistorySaveFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)
	chats := mocks.NewMockChatRepository()
	chats.AppendMessagesFunc = func(context.Context, string, []domain.ChatMessage, time.Time) error {
		return errors.New("connection reset")
	}
	uc := usecase.NewAssistantUseCase(completer, chats, nil, nil, nopLogger())

	completer.EXPECT().Stream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(streamChunks("ok"))

	var out bytes.Buffer
	session, err := uc.Chat(t.Context(), alice, usecase.ChatInput{Messages: userSays("hello")}, &out)
	if err != nil {
		t.Fatalf("expected success despite the save failure, got %v", err)
	}
	if out.String() != "ok" || len(session.Messages) != 0 {
		t.Fatalf("unexpected result: %q %d", out.String(), len(session.Messages))
	}
}

func helpFixture() *mocks.MockHelpRepository {
	return &mocks.MockHelpRepository{
		FAQs: []domain.HelpArticle{
			{Source: domain.HelpSourceFAQ, ID: "faq-1", Title: "Can I cancel a scheduled bill payment?", Snippet: "Yes, until it runs.", Category: "payments"},
			{Source: domain.HelpSourceFAQ, ID: "faq-2", Title: "How do I add money with a card?", Snippet: "Use Add Money.", Category: "accounts"},
		},
		Notices: []domain.HelpArticle{
			{Source: domain.HelpSourceNotice, ID: "n-1", Title: "Maintenance", Snippet: "Scheduled payment processing pauses on Sunday. " + strings.Repeat("x", 300), Category: "service"},
		},
	}
}

func TestAssistantUseCase_Search(t *testing.T) {
	uc := usecase.NewAssistantUseCase(nil, mocks.NewMockChatRepository(), nil, nil, nopLogger()).WithHelp(helpFixture())

	answer, err := uc.Search(t.Context(), "  scheduled payment ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if answer.Query != "scheduled payment" || len(answer.Sources) != 2 {
		t.Fatalf("expected one FAQ and one notice, got %+v", answer.Sources)
	}
	if answer.Sources[0].Source != domain.HelpSourceFAQ || answer.Sources[1].Source != domain.HelpSourceNotice {
		t.Fatalf("expected FAQs before notices, got %+v", answer.Sources)
	}
	if n := len([]rune(answer.Sources[1].Snippet)); n != 200 {
		t.Fatalf("expected notice snippet cut to 200 runes, got %d", n)
	}
	if !strings.HasPrefix(answer.Answer, "(1) [FAQ] Can I cancel a scheduled bill payment? - Yes, until it runs.\n\n(2) [Notice] Maintenance - ") {
		t.Fatalf("unexpected answer %q", answer.Answer)
	}

	none, err := uc.Search(t.Context(), "mortgage rates")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(none.Sources) != 0 || none.Answer != `I couldn't find an answer for "mortgage rates".` {
		t.Fatalf("unexpected empty answer %+v", none)
	}

	empty, err := uc.Search(t.Context(), "   ")
	if err != nil || empty.Answer != "Please type a question first." {
		t.Fatalf("unexpected blank query result %+v (%v)", empty, err)
	}
}

func TestAssistantUseCase_Search_Errors(t *testing.T) {
	uc := usecase.NewAssistantUseCase(nil, mocks.NewMockChatRepository(), nil, nil, nopLogger())
	if _, err := uc.Search(t.Context(), "card"); !errors.Is(err, domain.ErrAssistantUnavailable) {
		t.Fatalf("expected ErrAssistantUnavailable without help search, got %v", err)
	}

	boom := errors.New("connection refused")
	uc.WithHelp(&mocks.MockHelpRepository{Err: boom})
	if _, err := uc.Search(t.Context(), "card"); !errors.Is(err, boom) {
		t.Fatalf("expected the repository error, got %v", err)
	}
}

func TestAssistantUseCase_Chat_PromptIncludesHelp(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)
	uc := usecase.NewAssistantUseCase(completer, mocks.NewMockChatRepository(), nil, nil, nopLogger()).WithHelp(helpFixture())

	var prompt string
	completer.EXPECT().Stream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, systemPrompt string, history []domain.ChatMessage, emit func(string) error) error {
			prompt = systemPrompt
			return emit("You can cancel it until it runs.")
		})

	var out bytes.Buffer
	if _, err := uc.Chat(t.Context(), alice, usecase.ChatInput{Messages: userSays("cancel bill")}, &out); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.Contains(prompt, "[FAQ] Can I cancel a scheduled bill payment?: Yes, until it runs.") {
		t.Fatalf("expected matching FAQ in prompt, got %q", prompt)
	}
	if strings.Contains(prompt, "Add Money") {
		t.Fatalf("unrelated FAQ leaked into prompt: %q", prompt)
	}
}
