package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v19.0"

// Sender delivers a reply to a platform-side user.
type Sender interface {
	Send(ctx context.Context, recipientID, text string) error
}

// MessengerSender delivers replies through the Messenger Send API.
type MessengerSender struct {
	client    *http.Client
	baseURL   string
	pageToken string
}

// NewMessengerSender creates a sender. baseURL overrides the Graph API root
// for tests; empty means production.
func NewMessengerSender(pageToken, baseURL string) *MessengerSender {
	if baseURL == "" {
		baseURL = defaultGraphBaseURL
	}
	return &MessengerSender{
		client:    &http.Client{Timeout: 10 * time.Second},
		baseURL:   baseURL,
		pageToken: pageToken,
	}
}

// Send implements Sender.
func (s *MessengerSender) Send(ctx context.Context, recipientID, text string) error {
	payload := map[string]any{
		"messaging_type": "RESPONSE",
		"recipient":      map[string]string{"id": recipientID},
		"message":        map[string]string{"text": text},
	}
	endpoint := s.baseURL + "/me/messages?access_token=" + url.QueryEscape(s.pageToken)
	return postJSON(ctx, s.client, endpoint, "", payload)
}

// WhatsAppSender delivers replies through the WhatsApp Cloud API.
type WhatsAppSender struct {
	client        *http.Client
	baseURL       string
	accessToken   string
	phoneNumberID string
}

// NewWhatsAppSender creates a sender for one business phone number.
func NewWhatsAppSender(accessToken, phoneNumberID, baseURL string) *WhatsAppSender {
	if baseURL == "" {
		baseURL = defaultGraphBaseURL
	}
	return &WhatsAppSender{
		client:        &http.Client{Timeout: 10 * time.Second},
		baseURL:       baseURL,
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
	}
}

// Send implements Sender.
func (s *WhatsAppSender) Send(ctx context.Context, recipientID, text string) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                recipientID,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	endpoint := s.baseURL + "/" + s.phoneNumberID + "/messages"
	return postJSON(ctx, s.client, endpoint, "Bearer "+s.accessToken, payload)
}

func postJSON(ctx context.Context, client *http.Client, endpoint, authorization string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("platform send failed: %s: %s", resp.Status, detail)
	}
	return nil
}
