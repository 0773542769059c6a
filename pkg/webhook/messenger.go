package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/stagehand-io/stagehand/pkg/models"
)

// Event is one normalized inbound platform message.
type Event struct {
	Platform    string
	RecipientID string // the business's platform account (page, phone number)
	SenderID    string // the platform-side user
	Text        string
}

// messengerPayload mirrors the slice of the Messenger webhook body the core
// reads. Everything else is ignored.
type messengerPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID        string `json:"id"`
		Messaging []struct {
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
			Recipient struct {
				ID string `json:"id"`
			} `json:"recipient"`
			Message struct {
				Text   string `json:"text"`
				IsEcho bool   `json:"is_echo"`
			} `json:"message"`
		} `json:"messaging"`
	} `json:"entry"`
}

// ParseMessenger normalizes a Messenger webhook body. Echoes of our own
// sends and non-text events produce no Event.
func ParseMessenger(body []byte) ([]Event, error) {
	var payload messengerPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("malformed messenger payload: %w", err)
	}
	if payload.Object != "page" {
		return nil, fmt.Errorf("unexpected messenger object %q", payload.Object)
	}

	var events []Event
	for _, entry := range payload.Entry {
		for _, m := range entry.Messaging {
			if m.Message.Text == "" || m.Message.IsEcho {
				continue
			}
			events = append(events, Event{
				Platform:    models.PlatformMessenger,
				RecipientID: m.Recipient.ID,
				SenderID:    m.Sender.ID,
				Text:        m.Message.Text,
			})
		}
	}
	return events, nil
}

// VerifyChallenge implements the Meta webhook verification handshake: echo
// the challenge back when the mode and token match.
func VerifyChallenge(verifyToken, mode, token, challenge string) (string, bool) {
	if mode != "subscribe" || verifyToken == "" || token != verifyToken {
		return "", false
	}
	return challenge, true
}
