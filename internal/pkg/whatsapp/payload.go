package whatsapp

import (
	"encoding/json"
	"fmt"
)

// Webhook is the subset of the Cloud API notification body we read.
type Webhook struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				MessagingProduct string `json:"messaging_product"`
				Messages         []struct {
					From      string `json:"from"`
					ID        string `json:"id"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      *struct {
						Body string `json:"body"`
					} `json:"text,omitempty"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Message is one inbound text message.
type Message struct {
	ID   string
	From string
	Body string
}

// ParseWebhook decodes body and returns its text messages. Status updates and
// media messages are ignored.
func ParseWebhook(body []byte) ([]Message, error) {
	var hook Webhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	if hook.Object != "whatsapp_business_account" {
		return nil, fmt.Errorf("unexpected webhook object %q", hook.Object)
	}

	var out []Message
	for _, entry := range hook.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			for _, m := range change.Value.Messages {
				if m.Type != "text" || m.Text == nil {
					continue
				}
				out = append(out, Message{ID: m.ID, From: m.From, Body: m.Text.Body})
			}
		}
	}
	return out, nil
}
