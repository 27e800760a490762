package decision

import (
	"strings"

	"github.com/rcliao/agent-pipeline/internal/model"
)

const (
	selectedPrefix  = "Selected Action:"
	reasoningPrefix = "Reasoning:"
)

func buildPrompt(p model.Perception, memories []model.Memory, options []string) string {
	var b strings.Builder
	b.WriteString("You are a decision-making AI. Based on the context and available actions, ")
	b.WriteString("select the most appropriate action and provide reasoning.\n\n")

	b.WriteString("Current Situation:\n")
	b.WriteString(p.Content)
	b.WriteString("\n\nRelevant Past Information:\n")
	for _, m := range memories {
		b.WriteString("- ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}

	b.WriteString("\nAvailable Actions:\n")
	b.WriteString(strings.Join(options, ", "))
	b.WriteString("\n\nPlease select the most appropriate action and provide your reasoning.\n")
	b.WriteString("Format your response as:\n")
	b.WriteString(selectedPrefix + " <action>\n")
	b.WriteString(reasoningPrefix + " <your reasoning>\n")
	return b.String()
}

// parseResponse reads the two structured lines independently. A missing line
// yields an empty string.
func parseResponse(text string) (action, reasoning string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, selectedPrefix):
			action = strings.TrimSpace(strings.TrimPrefix(line, selectedPrefix))
		case strings.HasPrefix(line, reasoningPrefix):
			reasoning = strings.TrimSpace(strings.TrimPrefix(line, reasoningPrefix))
		}
	}
	return action, reasoning
}
