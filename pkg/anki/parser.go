// Package anki extracts flashcards from markdown callouts and pushes them to
// a running Anki instance through the AnkiConnect add-on.
package anki

import (
	"regexp"
	"strings"
)

// A card callout looks like
//
//	>[!anki] Question
//	> first answer line
//	> second answer line
var calloutPattern = regexp.MustCompile(`>\[!anki\]\s*(.+?)\n((?:>.*\n?)*)`)

const tabReplacement = "&nbsp;&nbsp;&nbsp;&nbsp;"

type Card struct {
	Question string `json:"q"`
	Answer   string `json:"a"`
}

// ParseCards returns every card callout in content, in document order. The
// answer is rendered as Anki HTML: one leading quote marker is removed per
// line, blank lines are dropped and the remaining lines are joined with <br>.
func ParseCards(content string) []Card {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	matches := calloutPattern.FindAllStringSubmatch(content, -1)
	cards := make([]Card, 0, len(matches))
	for _, m := range matches {
		cards = append(cards, Card{
			Question: strings.TrimSpace(m[1]),
			Answer:   renderAnswer(m[2]),
		})
	}
	return cards
}

func renderAnswer(block string) string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimPrefix(line, ">")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	answer := strings.Join(lines, "<br>")
	return strings.ReplaceAll(answer, "\t", tabReplacement)
}
