package ai

import "strings"

// Candidate is an incoming chat message considered for an AI reply.
type Candidate struct {
	UserID string
	Type   string // provider message type, "regular" for normal posts
	Text   string
}

// Trigger decides which messages earn an AI reply. The webhook and the
// realtime socket share one instance so both surfaces behave the same.
type Trigger struct {
	AIUserID string
}

func (t Trigger) ShouldRespond(c Candidate) bool {
	if c.UserID == "" || c.UserID == t.AIUserID || c.UserID == "system" {
		return false
	}
	if c.Type == "system" {
		return false
	}
	return strings.TrimSpace(c.Text) != ""
}
