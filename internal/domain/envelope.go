package domain

import (
	"strings"
	"time"
)

// Channel identifies the front end a message arrived through.
type Channel string

const (
	ChannelTelegram  Channel = "telegram"
	ChannelWhatsApp  Channel = "whatsapp"
	ChannelMobileApp Channel = "mobile_app"
	ChannelWebApp    Channel = "web_app"
)

// Channels lists every accepted channel.
var Channels = []Channel{ChannelTelegram, ChannelWhatsApp, ChannelMobileApp, ChannelWebApp}

// ParseChannel normalizes s and reports whether it names a known channel.
func ParseChannel(s string) (Channel, bool) {
	c := Channel(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Channels {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Envelope is the immutable input unit of the pipeline. It is passed by value
// and never mutated after construction.
type Envelope struct {
	Text          string
	Channel       Channel
	ChannelUserID string
	ReceivedAt    time.Time
}

// NewEnvelope builds an Envelope, trimming the text and stamping ReceivedAt
// in UTC.
func NewEnvelope(text string, ch Channel, channelUserID string, at time.Time) Envelope {
	return Envelope{
		Text:          strings.TrimSpace(text),
		Channel:       ch,
		ChannelUserID: strings.TrimSpace(channelUserID),
		ReceivedAt:    at.UTC(),
	}
}
