package alert

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"vigil/internal/config"
	"vigil/internal/storage"
)

type teamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type teamsSection struct {
	ActivityTitle    string      `json:"activityTitle"`
	ActivitySubtitle string      `json:"activitySubtitle"`
	Facts            []teamsFact `json:"facts"`
	Markdown         bool        `json:"markdown"`
}

type teamsTarget struct {
	OS  string `json:"os"`
	URI string `json:"uri"`
}

type teamsAction struct {
	Type    string        `json:"@type"`
	Name    string        `json:"name"`
	Targets []teamsTarget `json:"targets"`
}

type teamsCard struct {
	Type            string         `json:"@type"`
	Context         string         `json:"@context"`
	ThemeColor      string         `json:"themeColor"`
	Summary         string         `json:"summary"`
	Title           string         `json:"title"`
	Text            string         `json:"text"`
	Sections        []teamsSection `json:"sections"`
	PotentialAction []teamsAction  `json:"potentialAction,omitempty"`
}

// TeamsChannel posts alerts as MessageCards to Microsoft Teams webhooks.
type TeamsChannel struct {
	client       *http.Client
	dashboardURL string
}

func NewTeamsChannel(cfg config.TeamsConfig, client *http.Client) *TeamsChannel {
	return &TeamsChannel{client: client, dashboardURL: cfg.DashboardURL}
}

func (t *TeamsChannel) Name() storage.Channel { return storage.ChannelTeams }

func (t *TeamsChannel) Deliver(ctx context.Context, a *storage.Alert) error {
	if a.Recipient == "" {
		return fmt.Errorf("%w: no teams webhook", ErrNotConfigured)
	}
	if err := postJSON(ctx, t.client, a.Recipient, t.card(a), nil); err != nil {
		return fmt.Errorf("teams webhook: %w", err)
	}
	return nil
}

func (t *TeamsChannel) card(a *storage.Alert) teamsCard {
	st := styleFor(a.Kind)

	facts := []teamsFact{
		{Name: "Status", Value: st.label},
		{Name: "URL", Value: a.MonitorURL},
		{Name: "Time", Value: a.TriggeredAt.UTC().Format(time.RFC3339)},
		{Name: "Response Time", Value: strconv.FormatInt(a.ResponseTimeMs, 10) + "ms"},
	}
	if a.StatusCode != nil {
		facts = append(facts, teamsFact{Name: "Status Code", Value: strconv.Itoa(*a.StatusCode)})
	}
	if a.ErrorMessage != "" {
		facts = append(facts, teamsFact{Name: "Error", Value: a.ErrorMessage})
	}

	card := teamsCard{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		ThemeColor: st.teamsColor,
		Summary:    "Monitor Alert: " + a.MonitorName,
		Title:      fmt.Sprintf("%s Monitor Alert: %s", st.emoji, a.MonitorName),
		Text:       a.Message,
		Sections: []teamsSection{{
			ActivityTitle:    a.MonitorName,
			ActivitySubtitle: a.MonitorURL,
			Facts:            facts,
			Markdown:         true,
		}},
	}
	if t.dashboardURL != "" {
		card.PotentialAction = []teamsAction{{
			Type:    "OpenUri",
			Name:    "View Dashboard",
			Targets: []teamsTarget{{OS: "default", URI: t.dashboardURL}},
		}}
	}
	return card
}
