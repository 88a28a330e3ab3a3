package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SMSSender posts messages to an HTTP SMS gateway as JSON.
type SMSSender struct {
	url    string
	apiKey string
	sender string
	client *http.Client
}

func NewSMSSender(url, apiKey, sender string) *SMSSender {
	return &SMSSender{
		url:    url,
		apiKey: apiKey,
		sender: sender,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *SMSSender) Name() string { return "sms" }

type smsPayload struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

func (s *SMSSender) Send(ctx context.Context, recipient string, msg Message) error {
	body, err := json.Marshal(smsPayload{To: recipient, From: s.sender, Message: msg.Body})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
}
