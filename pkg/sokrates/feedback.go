package sokrates

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Citation struct {
	Text string `json:"text"`
}

type Comment struct {
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	Text     string    `json:"text"`
	Citation *Citation `json:"citation,omitempty"`
}

// Feedback is the payload of a feedbackEvent.
type Feedback struct {
	IsValid  bool      `json:"is_valid"`
	Summary  string    `json:"summary"`
	Comments []Comment `json:"comments"`
}

func ParseFeedback(data string) (Feedback, error) {
	var f Feedback
	if err := json.Unmarshal([]byte(data), &f); err != nil {
		return Feedback{}, fmt.Errorf("parse feedback: %w", err)
	}
	return f, nil
}

// ReportsInvalid is true when the summary says the submission is invalid,
// regardless of the IsValid flag.
func (f Feedback) ReportsInvalid() bool {
	return strings.Contains(strings.ToLower(f.Summary), "invalid")
}

// Callout renders the feedback as an Obsidian callout. Every line carries the
// quote marker so the callout stays one block.
func (f Feedback) Callout() string {
	kind := "error"
	if f.IsValid {
		kind = "success"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "> [!%s] Sokrates Feedback\n", kind)
	quote(&b, "", f.Summary)

	for _, c := range f.Comments {
		b.WriteString(">\n")
		quote(&b, "", fmt.Sprintf("**%s: %s**", c.Type, c.Title))
		quote(&b, " - ", c.Text)
		if c.Citation != nil && c.Citation.Text != "" {
			quote(&b, " - ", c.Citation.Text)
		}
	}
	return b.String()
}

func quote(b *strings.Builder, bullet, text string) {
	for i, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		b.WriteString("> ")
		if i == 0 {
			b.WriteString(bullet)
		} else if bullet != "" {
			b.WriteString(strings.Repeat(" ", len(bullet)))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
}
