package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/stagehand-io/stagehand/pkg/models"
)

// whatsappPayload mirrors the slice of the WhatsApp Cloud API webhook body
// the core reads.
type whatsappPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Messages []struct {
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ParseWhatsApp normalizes a WhatsApp webhook body. Status updates and
// non-text messages produce no Event.
func ParseWhatsApp(body []byte) ([]Event, error) {
	var payload whatsappPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("malformed whatsapp payload: %w", err)
	}
	if payload.Object != "whatsapp_business_account" {
		return nil, fmt.Errorf("unexpected whatsapp object %q", payload.Object)
	}

	var events []Event
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, m := range change.Value.Messages {
				if m.Type != "text" || m.Text.Body == "" {
					continue
				}
				events = append(events, Event{
					Platform:    models.PlatformWhatsApp,
					RecipientID: change.Value.Metadata.PhoneNumberID,
					SenderID:    m.From,
					Text:        m.Text.Body,
				})
			}
		}
	}
	return events, nil
}
