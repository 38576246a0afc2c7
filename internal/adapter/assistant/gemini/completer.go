// Package gemini streams assistant replies from Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

const defaultModel = "gemini-2.0-flash"

// Config holds the Gemini client settings.
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API host.
	BaseURL string
}

// Completer implements usecase.Completer.
type Completer struct {
	client *genai.Client
	model  string
	logger zerolog.Logger
}

var _ usecase.Completer = (*Completer)(nil)

// NewCompleter creates a Gemini-backed completer.
func NewCompleter(ctx context.Context, cfg Config, logger zerolog.Logger) (*Completer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Completer{
		client: client,
		model:  model,
		logger: logger.With().Str("component", "gemini").Str("model", model).Logger(),
	}, nil
}

// Stream sends the conversation and emits the reply text as it arrives.
func (c *Completer) Stream(ctx context.Context, systemPrompt string, history []domain.ChatMessage, emit func(chunk string) error) error {
	contents := toContents(history)
	if len(contents) == 0 {
		return domain.ErrEmptyConversation
	}

	config := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	chunks := 0
	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, config) {
		if err != nil {
			return fmt.Errorf("gemini stream: %w", err)
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		chunks++
		if err := emit(text); err != nil {
			return err
		}
	}

	c.logger.Debug().Int("chunks", chunks).Int("turns", len(contents)).Msg("assistant reply streamed")
	return nil
}

// toContents maps the chat history to Gemini turns. Blank messages are
// dropped and the history must open with a user turn.
func toContents(history []domain.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}

		var role genai.Role
		switch m.Role {
		case domain.ChatRoleUser:
			role = genai.RoleUser
		case domain.ChatRoleAssistant:
			if len(contents) == 0 {
				continue
			}
			role = genai.RoleModel
		default:
			continue
		}
		contents = append(contents, genai.NewContentFromText(text, role))
	}
	return contents
}
