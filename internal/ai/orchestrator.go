package ai

import (
	"context"

	"github.com/Devhypertech/aigroupgepanda/internal/llm"
	"github.com/Devhypertech/aigroupgepanda/models"

	"go.uber.org/zap"
)

const (
	AudienceGroup = "GROUP"

	// FallbackReply replaces the answer whenever the LLM call fails.
	FallbackReply = "I'm here to help! However, I'm experiencing some technical difficulties. Please try again in a moment."

	historyWindow = 10
)

type TriggerMessage struct {
	ID       string
	Text     string
	UserID   string
	Username string
}

type HistoryEntry struct {
	Kind     models.MessageKind
	UserID   string
	Username string
	Text     string
}

type Input struct {
	RoomID      string
	Template    models.RoomTemplate
	Message     TriggerMessage
	History     []HistoryEntry // chronological, oldest first
	TripContext *models.TripContextData
}

type Output struct {
	ReplyText string `json:"replyText"`
	Audience  string `json:"audience"`
}

type Orchestrator struct {
	llm llm.Sender
	log *zap.SugaredLogger
}

func NewOrchestrator(sender llm.Sender, log *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{llm: sender, log: log}
}

// Generate always produces a reply; LLM failures degrade to FallbackReply.
func (o *Orchestrator) Generate(ctx context.Context, in Input) Output {
	if NeedsRealtimeData(in.Message.Text) {
		o.log.Infow("real-time question answered with disclaimer", "room", in.RoomID, "message", in.Message.ID)
		return Output{ReplyText: RealtimeDisclaimer, Audience: AudienceGroup}
	}

	reply, err := o.llm.Send(ctx, BuildMessages(in))
	if err != nil {
		o.log.Errorw("generate ai reply", "room", in.RoomID, "error", err)
		return Output{ReplyText: FallbackReply, Audience: AudienceGroup}
	}
	return Output{ReplyText: reply, Audience: AudienceGroup}
}

// BuildMessages assembles the completion request: system prompt, the last
// ten history entries, then the triggering message.
func BuildMessages(in Input) []llm.Message {
	history := in.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: BuildSystemPrompt(in.Template, in.TripContext)})
	for _, h := range history {
		if h.Kind == models.KindAI {
			messages = append(messages, llm.Message{Role: "assistant", Content: h.Text})
			continue
		}
		messages = append(messages, llm.Message{Role: "user", Content: h.Username + ": " + h.Text})
	}
	messages = append(messages, llm.Message{Role: "user", Content: in.Message.Username + ": " + in.Message.Text})
	return messages
}
