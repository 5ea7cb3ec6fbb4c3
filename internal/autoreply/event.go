package autoreply

import "github.com/Devhypertech/aigroupgepanda/internal/chat"

const EventMessageNew = "message.new"

// Event is the subset of a provider webhook payload the responder reads.
type Event struct {
	Type        string        `json:"type"`
	CID         string        `json:"cid"`
	ChannelID   string        `json:"channel_id"`
	ChannelType string        `json:"channel_type"`
	Message     *chat.Message `json:"message"`
	Channel     *EventChannel `json:"channel"`
}

type EventChannel struct {
	ID   string `json:"id"`
	CID  string `json:"cid"`
	Type string `json:"type"`
}

// ChannelRef resolves the channel from the nested channel object, falling
// back to the top-level fields.
func (e Event) ChannelRef() chat.Channel {
	id, cid := e.ChannelID, e.CID
	if e.Channel != nil {
		if e.Channel.ID != "" {
			id = e.Channel.ID
		}
		if e.Channel.CID != "" {
			cid = e.Channel.CID
		}
	}
	ch := chat.ParseChannel(id, cid)
	if cid == "" && e.ChannelType != "" {
		ch.Type = e.ChannelType
	}
	return ch
}
