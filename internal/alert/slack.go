package alert

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"vigil/internal/config"
	"vigil/internal/storage"
)

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer"`
	Ts     int64        `json:"ts"`
}

type slackPayload struct {
	Username    string            `json:"username,omitempty"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

// SlackChannel posts alerts to Slack incoming webhooks.
type SlackChannel struct {
	client   *http.Client
	username string
}

func NewSlackChannel(cfg config.SlackConfig, client *http.Client) *SlackChannel {
	return &SlackChannel{client: client, username: cfg.Username}
}

func (s *SlackChannel) Name() storage.Channel { return storage.ChannelSlack }

func (s *SlackChannel) Deliver(ctx context.Context, a *storage.Alert) error {
	if a.Recipient == "" {
		return fmt.Errorf("%w: no slack webhook", ErrNotConfigured)
	}
	if err := postJSON(ctx, s.client, a.Recipient, s.payload(a), nil); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

func (s *SlackChannel) payload(a *storage.Alert) slackPayload {
	st := styleFor(a.Kind)
	ts := a.TriggeredAt.Unix()

	fields := []slackField{
		{Title: "Alert Type", Value: st.label, Short: true},
		{Title: "Time", Value: fmt.Sprintf("<!date^%d^{date_short_pretty} at {time}|%s>", ts, a.TriggeredAt.UTC().Format("2006-01-02 15:04:05 MST")), Short: true},
		{Title: "URL", Value: a.MonitorURL, Short: false},
	}
	if a.ResponseTimeMs > 0 {
		fields = append(fields, slackField{Title: "Response Time", Value: strconv.FormatInt(a.ResponseTimeMs, 10) + "ms", Short: true})
	}
	if a.StatusCode != nil {
		fields = append(fields, slackField{Title: "Status Code", Value: strconv.Itoa(*a.StatusCode), Short: true})
	}
	if a.ErrorMessage != "" {
		fields = append(fields, slackField{Title: "Error", Value: a.ErrorMessage, Short: false})
	}

	return slackPayload{
		Username:  s.username,
		IconEmoji: ":mag:",
		Attachments: []slackAttachment{{
			Color:  st.slackColor,
			Title:  fmt.Sprintf("%s Monitor Alert: %s", st.emoji, a.MonitorName),
			Text:   a.Message,
			Fields: fields,
			Footer: s.username,
			Ts:     ts,
		}},
	}
}
