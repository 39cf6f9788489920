package notify

import (
	"fmt"

	goslack "github.com/slack-go/slack"
)

const maxBlockTextLength = 2900

func sessionURL(sessionID, dashboardURL string) string {
	return fmt.Sprintf("%s/sessions/%s", dashboardURL, sessionID)
}

// BuildFailureMessage creates Block Kit blocks for a session-failed
// escalation notice.
func BuildFailureMessage(input FailureInput, dashboardURL string) []goslack.Block {
	headerText := fmt.Sprintf(":x: *Session failed*\n\n*Task:*\n%s", truncateForSlack(input.Task))
	if input.ErrorMessage != "" {
		headerText += fmt.Sprintf("\n\n*Error:*\n%s", truncateForSlack(input.ErrorMessage))
	}

	blocks := []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, headerText, false, false),
			nil, nil,
		),
	}
	return append(blocks, viewSessionButton(input.SessionID, dashboardURL))
}

// BuildEscalationMessage creates Block Kit blocks for a repeated-
// intervention escalation notice.
func BuildEscalationMessage(input EscalationInput, dashboardURL string) []goslack.Block {
	text := fmt.Sprintf(
		":rotating_light: *Session needs attention* — %d intervention%s requested (threshold: %d)\n\n*Task:*\n%s",
		input.InterventionCount, plural(input.InterventionCount), input.Threshold, truncateForSlack(input.Task),
	)

	blocks := []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false),
			nil, nil,
		),
	}
	return append(blocks, viewSessionButton(input.SessionID, dashboardURL))
}

func viewSessionButton(sessionID, dashboardURL string) goslack.Block {
	btn := goslack.NewButtonBlockElement("", "", goslack.NewTextBlockObject(goslack.PlainTextType, "View Session", false, false))
	btn.URL = sessionURL(sessionID, dashboardURL)
	return goslack.NewActionBlock("", btn)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func truncateForSlack(text string) string {
	if len(text) <= maxBlockTextLength {
		return text
	}
	return text[:maxBlockTextLength] + "\n\n_... (truncated — view full session in dashboard)_"
}
