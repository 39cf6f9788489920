package notify

import (
	"strings"
	"testing"

	goslack "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFailureMessage(t *testing.T) {
	blocks := BuildFailureMessage(FailureInput{
		SessionID:    "sess-1",
		Task:         "check the homepage renders",
		ErrorMessage: "CDP connection refused",
	}, "https://dash.example.com")

	require.Len(t, blocks, 2)

	section := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, section.Text.Text, ":x:")
	assert.Contains(t, section.Text.Text, "Session failed")
	assert.Contains(t, section.Text.Text, "check the homepage renders")
	assert.Contains(t, section.Text.Text, "CDP connection refused")

	action := blocks[1].(*goslack.ActionBlock)
	btn := action.Elements.ElementSet[0].(*goslack.ButtonBlockElement)
	assert.Contains(t, btn.URL, "https://dash.example.com/sessions/sess-1")
}

func TestBuildFailureMessageNoErrorMessage(t *testing.T) {
	blocks := BuildFailureMessage(FailureInput{SessionID: "sess-2", Task: "task"}, "https://dash.example.com")
	section := blocks[0].(*goslack.SectionBlock)
	assert.NotContains(t, section.Text.Text, "*Error:*")
}

func TestBuildEscalationMessage(t *testing.T) {
	blocks := BuildEscalationMessage(EscalationInput{
		SessionID:         "sess-3",
		Task:              "fill out the signup form",
		InterventionCount: 3,
		Threshold:         3,
	}, "https://dash.example.com")

	require.Len(t, blocks, 2)
	section := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, section.Text.Text, ":rotating_light:")
	assert.Contains(t, section.Text.Text, "3 interventions requested")
	assert.Contains(t, section.Text.Text, "threshold: 3")
}

func TestBuildEscalationMessageSingularCount(t *testing.T) {
	blocks := BuildEscalationMessage(EscalationInput{
		SessionID: "sess-4", Task: "task", InterventionCount: 1, Threshold: 1,
	}, "https://dash.example.com")
	section := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, section.Text.Text, "1 intervention requested")
	assert.NotContains(t, section.Text.Text, "1 interventions")
}

func TestTruncateForSlack(t *testing.T) {
	long := strings.Repeat("a", maxBlockTextLength+500)
	truncated := truncateForSlack(long)
	assert.LessOrEqual(t, len(truncated), maxBlockTextLength+100)
	assert.Contains(t, truncated, "truncated")

	short := "short text"
	assert.Equal(t, short, truncateForSlack(short))
}
