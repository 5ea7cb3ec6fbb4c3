package ai

import (
	"regexp"
	"strings"
)

// RealtimeDisclaimer answers questions that need live data the model does not have.
const RealtimeDisclaimer = "I don't have access to real-time information like current weather, live prices, breaking news, or flight status. For the most up-to-date information, I recommend checking official sources, weather apps, news websites, or airline/train websites directly. However, I'm happy to help with travel planning, destination recommendations, itinerary suggestions, and general travel advice!"

var realtimePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(current|today|now|right now|live|real-time|real time)\b.*\b(president|weather|temperature|price|cost|rate|exchange rate|stock|news|headline|status|delay|on time)\b`),
	regexp.MustCompile(`(?i)\b(who is|what is|what's)\b.*\b(current|now|today)\b.*\b(president|leader|prime minister|weather|price|news)\b`),
	regexp.MustCompile(`(?i)\b(weather|temperature|forecast)\b.*\b(today|now|current|right now)\b`),
	regexp.MustCompile(`(?i)\b(price|cost|rate|exchange rate|stock price)\b.*\b(current|now|today|live)\b`),
	regexp.MustCompile(`(?i)\b(news|headline|breaking|latest)\b.*\b(today|now|current)\b`),
	regexp.MustCompile(`(?i)\b(flight|train|bus)\b.*\b(status|delay|on time|arrival|departure)\b`),
	regexp.MustCompile(`(?i)\b(what time is it|what's the time|current time)\b`),
	regexp.MustCompile(`(?i)\b(how much|what's the price|what does.*cost)\b.*\b(now|today|current)\b`),
}

// NeedsRealtimeData reports whether the question asks for live information.
func NeedsRealtimeData(text string) bool {
	lower := strings.ToLower(text)
	for _, re := range realtimePatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}
