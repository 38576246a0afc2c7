package domain

import "time"

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is a stored conversation with the assistant.
type ChatSession struct {
	ID        string
	UserID    string
	Name      string
	Messages  []ChatMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LastUserMessage returns the most recent user message.
func LastUserMessage(msgs []ChatMessage) (ChatMessage, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == ChatRoleUser {
			return msgs[i], true
		}
	}
	return ChatMessage{}, false
}

// HelpSource says which help table an article came from.
type HelpSource string

const (
	HelpSourceFAQ    HelpSource = "FAQ"
	HelpSourceNotice HelpSource = "Notice"
)

// HelpArticle is a search hit from the FAQs or the published notices.
type HelpArticle struct {
	Source   HelpSource
	ID       string
	Title    string
	Snippet  string
	Category string
}

// HelpAnswer is the assistant's reply to a help search.
type HelpAnswer struct {
	Query   string
	Answer  string
	Sources []HelpArticle
}
