package tiktok

import (
	"encoding/json"

	"github.com/mkrencik/droppit/internal/domain"
)

// EventKind discriminates normalized feed events.
type EventKind string

const (
	KindChat EventKind = "chat"
	KindGift EventKind = "gift"
)

// FeedEvent is a normalized upstream callback, decoded off the wire and
// handed to the ingestion pump over a bounded channel.
type FeedEvent struct {
	Kind EventKind
	Chat domain.ChatPayload
	Gift domain.GiftPayload
}

// envelope is the bridge's wire frame.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// decodeEnvelope parses one wire frame into a FeedEvent. Unknown envelope
// types yield (zero, false).
func decodeEnvelope(raw []byte) (FeedEvent, bool, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return FeedEvent{}, false, err
	}

	switch env.Type {
	case EnvelopeChat:
		var chat domain.ChatPayload
		if err := json.Unmarshal(env.Data, &chat); err != nil {
			return FeedEvent{}, false, err
		}
		return FeedEvent{Kind: KindChat, Chat: chat}, true, nil

	case EnvelopeGift:
		var gift domain.GiftPayload
		if err := json.Unmarshal(env.Data, &gift); err != nil {
			return FeedEvent{}, false, err
		}
		return FeedEvent{Kind: KindGift, Gift: gift}, true, nil
	}

	return FeedEvent{}, false, nil
}
