// Package assistant answers free-form finance questions, through a language
// model when one is configured and from keyword rules otherwise.
package assistant

import (
	"context"

	"finsight/internal/core"
	"finsight/internal/log"
)

// historyWindow is how many prior turns are forwarded to the model.
const historyWindow = 10

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a chat request. Context is the user's recent monthly history.
type Request struct {
	Message string               `json:"message"`
	Context []core.MonthlyRecord `json:"context"`
	History []Message            `json:"history"`
	UserID  *int64               `json:"user_id,omitempty"`
}

// Reply is the assistant's answer.
type Reply struct {
	Reply      string `json:"reply"`
	Model      string `json:"model"`
	TokensUsed int    `json:"tokens_used"`
}

// Assistant routes chat requests. A nil completer always uses rules.
type Assistant struct {
	completer Completer
	logger    *log.Logger
}

// New creates an assistant.
func New(completer Completer, logger *log.Logger) *Assistant {
	if logger == nil {
		logger = log.Default(log.ComponentAssistant)
	}
	return &Assistant{completer: completer, logger: logger.WithComponent(log.ComponentAssistant)}
}

// Chat never fails: model errors fall back to the rule-based reply.
func (a *Assistant) Chat(ctx context.Context, req Request) Reply {
	if a.completer != nil {
		c, err := a.completer.Complete(ctx, BuildMessages(req))
		if err == nil {
			return Reply{Reply: c.Text, Model: c.Model, TokensUsed: c.TokensUsed}
		}
		a.logger.WarnContext(ctx, "Chat completion failed, using rule-based reply",
			log.FieldOperation, log.OpChat,
			log.FieldError, err.Error())
	}
	return RuleBased(req)
}

// RuleBased answers req from keyword rules.
func RuleBased(req Request) Reply {
	return Reply{
		Reply: ruleBasedReply(req.Message, ContextPrompt(req.Context)),
		Model: RuleBasedModel,
	}
}

// BuildMessages assembles the system prompt, the most recent history turns
// and the user message.
func BuildMessages(req Request) []Message {
	history := req.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: "system", Content: SystemPrompt(req.Context)})
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: "user", Content: req.Message})
	return msgs
}
