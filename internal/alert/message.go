package alert

import (
	"fmt"
	"strings"
	"time"

	"vigil/internal/checks"
	"vigil/internal/storage"
)

type style struct {
	emoji      string
	label      string
	slackColor string
	teamsColor string
	htmlColor  string
}

var styles = map[storage.AlertKind]style{
	storage.AlertKindDowntime: {emoji: "🚨", label: "DOWN", slackColor: "danger", teamsColor: "FF0000", htmlColor: "#dc3545"},
	storage.AlertKindRecovery: {emoji: "✅", label: "UP", slackColor: "good", teamsColor: "00FF00", htmlColor: "#28a745"},
	storage.AlertKindDegraded: {emoji: "⚠️", label: "DEGRADED", slackColor: "warning", teamsColor: "FFA500", htmlColor: "#ffc107"},
}

func styleFor(kind storage.AlertKind) style {
	if s, ok := styles[kind]; ok {
		return s
	}
	return style{emoji: "🔍", label: strings.ToUpper(string(kind)), slackColor: "#1976d2", teamsColor: "1976D2", htmlColor: "#1976d2"}
}

// KindFor decides whether a check outcome warrants an alert.
//
// A transition into DOWN raises downtime, DOWN to UP raises recovery, and
// every DEGRADED result raises a slow-response warning.
func KindFor(previous, current storage.Status, transitioned bool) (storage.AlertKind, bool) {
	switch {
	case current == storage.StatusDown && transitioned:
		return storage.AlertKindDowntime, true
	case current == storage.StatusUp && previous == storage.StatusDown:
		return storage.AlertKindRecovery, true
	case current == storage.StatusDegraded:
		return storage.AlertKindDegraded, true
	}
	return "", false
}

// RenderMessage builds the plain-text alert body shared by all channels.
func RenderMessage(kind storage.AlertKind, m *storage.Monitor, r *checks.Result, at time.Time) string {
	var b strings.Builder
	switch kind {
	case storage.AlertKindDowntime:
		fmt.Fprintf(&b, "🚨 ALERT: %s is DOWN!\n\n", m.Name)
	case storage.AlertKindRecovery:
		fmt.Fprintf(&b, "✅ RECOVERY: %s is back UP!\n\n", m.Name)
	case storage.AlertKindDegraded:
		fmt.Fprintf(&b, "⚠️ WARNING: %s is DEGRADED!\n\n", m.Name)
	}

	fmt.Fprintf(&b, "URL: %s\n", m.URL)
	if kind == storage.AlertKindDegraded {
		fmt.Fprintf(&b, "Response Time: %dms (slow response)\n", r.ResponseTimeMs)
	} else {
		fmt.Fprintf(&b, "Response Time: %dms\n", r.ResponseTimeMs)
	}
	if r.StatusCode != nil {
		fmt.Fprintf(&b, "Status Code: %d\n", *r.StatusCode)
	}
	if kind == storage.AlertKindDowntime {
		errText := r.Error
		if errText == "" {
			errText = "Unknown error"
		}
		fmt.Fprintf(&b, "Error: %s\n", errText)
	}
	fmt.Fprintf(&b, "Time: %s", at.UTC().Format(time.RFC3339))
	return b.String()
}

// Subject returns the email subject line for an alert.
func Subject(brand string, a *storage.Alert) string {
	return fmt.Sprintf("%s Alert: %s - %s", brand, a.MonitorName, strings.ToUpper(string(a.Kind)))
}
