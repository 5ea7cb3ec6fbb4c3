package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Devhypertech/aigroupgepanda/internal/llm"
	"github.com/Devhypertech/aigroupgepanda/internal/logger"
	"github.com/Devhypertech/aigroupgepanda/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	calls int
	last  []llm.Message
	reply string
	err   error
}

func (f *fakeSender) Send(_ context.Context, messages []llm.Message) (string, error) {
	f.calls++
	f.last = messages
	return f.reply, f.err
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestRealtimeQuestionSkipsLLM(t *testing.T) {
	sender := &fakeSender{reply: "should not be used"}
	o := NewOrchestrator(sender, logger.Nop())

	out := o.Generate(context.Background(), Input{
		RoomID:   "r1",
		Template: models.TemplateTravelPlanning,
		Message:  TriggerMessage{ID: "m1", Text: "what's the weather today", UserID: "u1", Username: "Ana"},
	})

	assert.Equal(t, RealtimeDisclaimer, out.ReplyText)
	assert.Equal(t, AudienceGroup, out.Audience)
	assert.Zero(t, sender.calls)
}

func TestNeedsRealtimeData(t *testing.T) {
	live := []string{
		"What's the weather today in Rome?",
		"who is the current president",
		"current exchange rate for euros",
		"Is my flight delayed? status please",
		"what time is it",
		"how much is a taxi now",
		"latest news today",
	}
	for _, q := range live {
		assert.True(t, NeedsRealtimeData(q), q)
	}

	planning := []string{
		"Where should we stay in Lisbon?",
		"Suggest a 3 day itinerary for Kyoto",
		"good vegan food near the old town",
	}
	for _, q := range planning {
		assert.False(t, NeedsRealtimeData(q), q)
	}
}

func TestGenerateUsesLLMReply(t *testing.T) {
	sender := &fakeSender{reply: "Try Alfama."}
	o := NewOrchestrator(sender, logger.Nop())

	out := o.Generate(context.Background(), Input{
		Template: models.TemplateTravelPlanning,
		Message:  TriggerMessage{Text: "where to stay?", Username: "Ana"},
	})
	assert.Equal(t, "Try Alfama.", out.ReplyText)
	assert.Equal(t, 1, sender.calls)
}

func TestGenerateFallsBackOnError(t *testing.T) {
	sender := &fakeSender{err: errors.New("boom")}
	o := NewOrchestrator(sender, logger.Nop())

	out := o.Generate(context.Background(), Input{
		Message: TriggerMessage{Text: "plan a trip", Username: "Ana"},
	})
	assert.Equal(t, FallbackReply, out.ReplyText)
	assert.Equal(t, AudienceGroup, out.Audience)
}

func TestBuildMessagesKeepsLastTenHistoryEntries(t *testing.T) {
	var history []HistoryEntry
	for i := 0; i < 14; i++ {
		kind := models.KindUser
		if i%2 == 1 {
			kind = models.KindAI
		}
		history = append(history, HistoryEntry{Kind: kind, Username: "Ana", Text: fmt.Sprintf("h%d", i)})
	}

	msgs := BuildMessages(Input{
		Template: models.TemplateGeneral,
		History:  history,
		Message:  TriggerMessage{Text: "ideas?", Username: "Ben"},
	})

	require.Len(t, msgs, 12)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "Ana: h4", msgs[1].Content)
	assert.Equal(t, "assistant", msgs[2].Role)
	assert.Equal(t, "h5", msgs[2].Content)
	assert.Equal(t, "user", msgs[11].Role)
	assert.Equal(t, "Ben: ideas?", msgs[11].Content)
}

func TestBuildSystemPromptTemplates(t *testing.T) {
	p := BuildSystemPrompt(models.TemplateFoodDiscovery, nil)
	assert.True(t, strings.HasPrefix(p, basePrompt))
	assert.Contains(t, p, "food discovery room")
	assert.Contains(t, p, "No trip context is set yet.")
	assert.True(t, strings.HasSuffix(p, "Respond naturally to the conversation."))

	assert.Contains(t, BuildSystemPrompt(models.TemplateGeneral, nil), defaultFraming)
	assert.Contains(t, BuildSystemPrompt("UNKNOWN", nil), defaultFraming)
}

func TestBuildSystemPromptTripContext(t *testing.T) {
	full := &models.TripContextData{
		Destination: strPtr("Tokyo"),
		StartDate:   strPtr("2025-04-01"),
		EndDate:     strPtr("2025-04-10"),
		Travelers:   intPtr(4),
		BudgetRange: strPtr("mid"),
		Interests:   &[]string{"food", "temples"},
		Notes:       strPtr("one vegetarian"),
	}
	p := BuildSystemPrompt(models.TemplateTravelPlanning, full)
	assert.Contains(t, p, "TRIP CONTEXT (use this to tailor your responses):")
	assert.Contains(t, p, "\n- Destination: Tokyo")
	assert.Contains(t, p, "\n- Travel Dates: 2025-04-01 to 2025-04-10")
	assert.Contains(t, p, "\n- Number of Travelers: 4")
	assert.Contains(t, p, "\n- Budget Range: mid")
	assert.Contains(t, p, "\n- Interests: food, temples")
	assert.Contains(t, p, "\n- Notes: one vegetarian")

	onlyStart := &models.TripContextData{StartDate: strPtr("2025-04-01"), Destination: strPtr("   ")}
	p = BuildSystemPrompt(models.TemplateTravelPlanning, onlyStart)
	assert.Contains(t, p, "TRIP CONTEXT (incomplete)")
	assert.NotContains(t, p, "Travel Dates")
}

func TestShouldRespond(t *testing.T) {
	trig := Trigger{AIUserID: "gepanda-ai"}

	assert.True(t, trig.ShouldRespond(Candidate{UserID: "u1", Type: "regular", Text: "hello"}))
	assert.False(t, trig.ShouldRespond(Candidate{UserID: "gepanda-ai", Text: "hello"}))
	assert.False(t, trig.ShouldRespond(Candidate{UserID: "system", Text: "hello"}))
	assert.False(t, trig.ShouldRespond(Candidate{UserID: "u1", Type: "system", Text: "joined"}))
	assert.False(t, trig.ShouldRespond(Candidate{UserID: "u1", Text: "   "}))
	assert.False(t, trig.ShouldRespond(Candidate{Text: "anonymous"}))
}
