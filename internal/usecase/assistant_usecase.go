package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/infrastructure/metrics"
)

const assistantPrompt = `You are Finovo AI, a helpful banking assistant for the Finovo banking app. ` +
	`You help users with account information, transaction history, spending analysis, and financial advice. ` +
	`Keep answers concise and professional. Never invent balances; use only the figures below. ` +
	`You cannot move money; direct the user to the transfers or payments pages for that.`

// AssistantUseCase streams replies from the generative assistant and keeps
// the conversation history.
type AssistantUseCase struct {
	completer Completer
	chats     ChatRepository
	accounts  AccountRepository
	help      HelpRepository
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewAssistantUseCase creates a new AssistantUseCase. accounts may be nil, in
// which case the prompt carries no account summary.
func NewAssistantUseCase(completer Completer, chats ChatRepository, accounts AccountRepository, m *metrics.Metrics, logger zerolog.Logger) *AssistantUseCase {
	return &AssistantUseCase{
		completer: completer,
		chats:     chats,
		accounts:  accounts,
		metrics:   m,
		logger:    logger,
	}
}

// WithHelp enables help search and adds matching FAQs and notices to the chat prompt.
func (uc *AssistantUseCase) WithHelp(help HelpRepository) *AssistantUseCase {
	uc.help = help
	return uc
}

// ChatInput is one assistant turn. Messages is the conversation as the
// client sees it; the last user message is the question.
type ChatInput struct {
	SessionID string
	Messages  []domain.ChatMessage
}

// Chat writes the reply to w chunk by chunk and stores the exchange. Errors
// returned before anything is written leave w untouched.
func (uc *AssistantUseCase) Chat(ctx context.Context, userID string, input ChatInput, w io.Writer) (*domain.ChatSession, error) {
	if uc.completer == nil {
		return nil, fmt.Errorf("%w: no completion backend configured", domain.ErrAssistantUnavailable)
	}
	question, ok := domain.LastUserMessage(input.Messages)
	if !ok || strings.TrimSpace(question.Content) == "" {
		return nil, domain.ErrEmptyConversation
	}

	session, err := uc.session(ctx, userID, input.SessionID, question.Content)
	if err != nil {
		return nil, err
	}

	prompt := uc.systemPrompt(ctx, userID, question.Content)

	var reply strings.Builder
	err = uc.completer.Stream(ctx, prompt, input.Messages, func(chunk string) error {
		reply.WriteString(chunk)
		_, werr := io.WriteString(w, chunk)
		return werr
	})
	if err != nil {
		uc.observe("error")
		uc.logger.Error().Err(err).Str("session_id", session.ID).Msg("assistant stream failed")
		if reply.Len() == 0 {
			return nil, fmt.Errorf("%w: %v", domain.ErrAssistantUnavailable, err)
		}
		return nil, err
	}

	now := time.Now().UTC()
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	if question.Timestamp.IsZero() {
		question.Timestamp = now
	}
	question.Role = domain.ChatRoleUser
	answer := domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      domain.ChatRoleAssistant,
		Content:   reply.String(),
		Timestamp: now,
	}

	// The reply has already been delivered; a failed save only loses history.
	if err := uc.chats.AppendMessages(ctx, session.ID, []domain.ChatMessage{question, answer}, now); err != nil {
		uc.logger.Warn().Err(err).Str("session_id", session.ID).Msg("failed to save chat history")
	} else {
		session.Messages = append(session.Messages, question, answer)
		session.UpdatedAt = now
	}

	uc.observe("success")
	return session, nil
}

func (uc *AssistantUseCase) session(ctx context.Context, userID, sessionID, firstQuestion string) (*domain.ChatSession, error) {
	if sessionID != "" {
		s, err := uc.chats.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if s.UserID != userID {
			return nil, domain.ErrSessionNotFound
		}
		return s, nil
	}

	now := time.Now().UTC()
	s := &domain.ChatSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      sessionName(firstQuestion),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.chats.CreateSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func sessionName(question string) string {
	name := strings.Join(strings.Fields(question), " ")
	if r := []rune(name); len(r) > 40 {
		name = string(r[:40]) + "..."
	}
	return name
}

func (uc *AssistantUseCase) systemPrompt(ctx context.Context, userID, question string) string {
	var b strings.Builder
	b.WriteString(assistantPrompt)
	uc.writeAccounts(ctx, &b, userID)
	uc.writeHelp(ctx, &b, question)
	return b.String()
}

func (uc *AssistantUseCase) writeAccounts(ctx context.Context, b *strings.Builder, userID string) {
	if uc.accounts == nil {
		return
	}

	accounts, err := uc.accounts.ListByUser(ctx, userID)
	if err != nil {
		uc.logger.Warn().Err(err).Msg("assistant prompt without account summary")
		return
	}
	if len(accounts) == 0 {
		b.WriteString("\n\nThe user has no open accounts.")
		return
	}

	b.WriteString("\n\nThe user's accounts:\n")
	for _, a := range accounts {
		fmt.Fprintf(b, "- %s account ending %s: balance %s %s, available %s %s\n",
			a.Type, lastDigits(a.AccountNumber), a.Balance.StringFixed(2), a.Currency, a.AvailableBalance.StringFixed(2), a.Currency)
	}
}

func (uc *AssistantUseCase) writeHelp(ctx context.Context, b *strings.Builder, question string) {
	if uc.help == nil {
		return
	}

	articles, err := uc.searchHelp(ctx, question, helpPromptLimit)
	if err != nil {
		uc.logger.Warn().Err(err).Msg("assistant prompt without help articles")
		return
	}
	if len(articles) == 0 {
		return
	}
	articles = articles[:min(len(articles), helpPromptLimit)]

	b.WriteString("\n\nHelp articles that may answer the question:\n")
	for _, a := range articles {
		fmt.Fprintf(b, "- [%s] %s: %s\n", a.Source, a.Title, a.Snippet)
	}
}

func lastDigits(number string) string {
	if len(number) <= 4 {
		return number
	}
	return number[len(number)-4:]
}

func (uc *AssistantUseCase) observe(result string) {
	if uc.metrics != nil {
		uc.metrics.AssistantRequests.WithLabelValues(result).Inc()
	}
}

// ListSessions returns the user's conversations, newest first.
func (uc *AssistantUseCase) ListSessions(ctx context.Context, userID string) ([]*domain.ChatSession, error) {
	return uc.chats.ListSessions(ctx, userID)
}

// GetSession returns one of the user's conversations with its messages.
func (uc *AssistantUseCase) GetSession(ctx context.Context, userID, id string) (*domain.ChatSession, error) {
	s, err := uc.chats.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.UserID != userID {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

const (
	helpSearchLimit  = 5
	helpPromptLimit  = 3
	helpSnippetRunes = 200
)

// Search answers a question from the FAQs and notices without the language
// model. Each source contributes at most five matches.
func (uc *AssistantUseCase) Search(ctx context.Context, query string) (*domain.HelpAnswer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &domain.HelpAnswer{Answer: "Please type a question first."}, nil
	}
	if uc.help == nil {
		return nil, fmt.Errorf("%w: help search not configured", domain.ErrAssistantUnavailable)
	}

	articles, err := uc.searchHelp(ctx, query, helpSearchLimit)
	if err != nil {
		return nil, err
	}

	answer := &domain.HelpAnswer{Query: query, Sources: articles}
	if len(articles) == 0 {
		answer.Answer = fmt.Sprintf("I couldn't find an answer for %q.", query)
		return answer, nil
	}

	parts := make([]string, len(articles))
	for i, a := range articles {
		parts[i] = fmt.Sprintf("(%d) [%s] %s - %s", i+1, a.Source, a.Title, a.Snippet)
	}
	answer.Answer = strings.Join(parts, "\n\n")
	return answer, nil
}

// searchHelp returns up to perSource FAQ matches followed by up to perSource
// notices, with notice bodies cut to a snippet.
func (uc *AssistantUseCase) searchHelp(ctx context.Context, query string, perSource int) ([]domain.HelpArticle, error) {
	faqs, err := uc.help.SearchFAQs(ctx, query, perSource)
	if err != nil {
		return nil, fmt.Errorf("search faqs: %w", err)
	}
	notices, err := uc.help.SearchNotices(ctx, query, perSource)
	if err != nil {
		return nil, fmt.Errorf("search notices: %w", err)
	}

	out := make([]domain.HelpArticle, 0, len(faqs)+len(notices))
	out = append(out, faqs...)
	for _, n := range notices {
		if r := []rune(n.Snippet); len(r) > helpSnippetRunes {
			n.Snippet = string(r[:helpSnippetRunes])
		}
		out = append(out, n)
	}
	return out, nil
}
