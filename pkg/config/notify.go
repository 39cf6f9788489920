package config

import (
	"os"
	"strconv"
)

// NotifyConfig controls pkg/notify's Slack escalation notices (SPEC_FULL.md
// "Escalation notifications on repeated intervention / failure"). Loaded
// entirely from the environment, never from YAML — Token is a secret and
// the rest travel with it for the same reason ENCRYPTION_KEY does.
type NotifyConfig struct {
	Token               string
	Channel             string
	DashboardURL        string
	EscalationThreshold int
}

// loadNotifyConfigFromEnv reads SLACK_TOKEN/SLACK_CHANNEL/DASHBOARD_URL/
// ESCALATION_THRESHOLD. A missing or empty Token/Channel disables
// notifications entirely (pkg/notify.NewService's nil-service contract).
func loadNotifyConfigFromEnv() *NotifyConfig {
	threshold := 3
	if v := os.Getenv("ESCALATION_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			threshold = n
		}
	}
	return &NotifyConfig{
		Token:               os.Getenv("SLACK_TOKEN"),
		Channel:             os.Getenv("SLACK_CHANNEL"),
		DashboardURL:        os.Getenv("DASHBOARD_URL"),
		EscalationThreshold: threshold,
	}
}
