package ai

import (
	"strconv"
	"strings"

	"github.com/Devhypertech/aigroupgepanda/models"
)

const basePrompt = "You are GePanda AI, a helpful travel assistant in a group chat. You help travelers plan trips, answer questions, and provide recommendations."

var templateFraming = map[models.RoomTemplate]string{
	models.TemplateTravelPlanning: " This is a travel planning room. Help users plan their trip, suggest destinations, activities, and accommodations.",
	models.TemplateLiveTrip:       " This is a live trip room. Users are currently traveling. Help with real-time questions, local recommendations, and travel support.",
	models.TemplateFlightTracking: " This is a flight tracking room. Help users track flights, understand delays, and provide airport information.",
	models.TemplateFoodDiscovery:  " This is a food discovery room. Help users find restaurants, local cuisine, and dining recommendations.",
}

const (
	defaultFraming = " Help users with their travel-related questions."

	contextUsage = "\n\nWhen users ask questions, reference this trip context naturally. Provide specific recommendations based on their destination, dates, and preferences."

	incompleteContext = "\n\nTRIP CONTEXT (incomplete): Some trip details are missing." +
		"\n\nWhen users ask planning questions, ask 1-2 clarifying questions to understand their destination, travel dates, or number of travelers before providing recommendations. Be helpful but don't guess - ask for specifics."

	noContext = "\n\nNo trip context is set yet. When users ask planning questions, politely ask 1-2 key questions (like destination, dates, or number of travelers) to better assist them."

	closing = "\n\nKeep your responses concise, friendly, and helpful. Respond naturally to the conversation."
)

// BuildSystemPrompt renders the system message for a room. A nil trip
// context means none has been saved for the room.
func BuildSystemPrompt(template models.RoomTemplate, trip *models.TripContextData) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	if framing, ok := templateFraming[template]; ok {
		b.WriteString(framing)
	} else {
		b.WriteString(defaultFraming)
	}

	switch {
	case trip == nil:
		b.WriteString(noContext)
	case hasUsableContext(*trip):
		writeTripContext(&b, *trip)
	default:
		b.WriteString(incompleteContext)
	}

	b.WriteString(closing)
	return b.String()
}

func hasUsableContext(d models.TripContextData) bool {
	return d.DestinationText() != "" ||
		(d.StartDateText() != "" && d.EndDateText() != "") ||
		d.TravelerCount() > 0
}

func writeTripContext(b *strings.Builder, d models.TripContextData) {
	b.WriteString("\n\nTRIP CONTEXT (use this to tailor your responses):")
	if dest := d.DestinationText(); dest != "" {
		b.WriteString("\n- Destination: " + dest)
	}
	if d.StartDateText() != "" && d.EndDateText() != "" {
		b.WriteString("\n- Travel Dates: " + d.StartDateText() + " to " + d.EndDateText())
	}
	if n := d.TravelerCount(); n > 0 {
		b.WriteString("\n- Number of Travelers: " + strconv.Itoa(n))
	}
	if budget := d.BudgetText(); budget != "" {
		b.WriteString("\n- Budget Range: " + budget)
	}
	if interests := d.InterestList(); len(interests) > 0 {
		b.WriteString("\n- Interests: " + strings.Join(interests, ", "))
	}
	if notes := d.NotesText(); notes != "" {
		b.WriteString("\n- Notes: " + notes)
	}
	b.WriteString(contextUsage)
}
