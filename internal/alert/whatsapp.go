package alert

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"vigil/internal/config"
	"vigil/internal/storage"
)

type whatsAppText struct {
	Body string `json:"body"`
}

type whatsAppMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

// WhatsAppChannel sends text messages through the WhatsApp Cloud API.
type WhatsAppChannel struct {
	client *http.Client
	cfg    config.WhatsAppConfig
}

func NewWhatsAppChannel(cfg config.WhatsAppConfig, client *http.Client) *WhatsAppChannel {
	return &WhatsAppChannel{client: client, cfg: cfg}
}

func (w *WhatsAppChannel) Name() storage.Channel { return storage.ChannelWhatsApp }

func (w *WhatsAppChannel) Deliver(ctx context.Context, a *storage.Alert) error {
	if w.cfg.AccessToken == "" || w.cfg.PhoneNumberID == "" {
		return fmt.Errorf("%w: whatsapp credentials missing", ErrNotConfigured)
	}
	if a.Recipient == "" {
		return fmt.Errorf("%w: no whatsapp number", ErrNotConfigured)
	}

	url := fmt.Sprintf("%s/%s/messages", strings.TrimRight(w.cfg.APIURL, "/"), w.cfg.PhoneNumberID)
	msg := whatsAppMessage{
		MessagingProduct: "whatsapp",
		To:               strings.TrimPrefix(a.Recipient, "+"),
		Type:             "text",
		Text:             whatsAppText{Body: a.Message},
	}
	header := http.Header{"Authorization": {"Bearer " + w.cfg.AccessToken}}

	if err := postJSON(ctx, w.client, url, msg, header); err != nil {
		return fmt.Errorf("whatsapp api: %w", err)
	}
	return nil
}
