package watermark

import (
	"strings"

	"golang.org/x/image/font"
)

// wrapText splits text into lines measuring at most maxWidth pixels in the
// given face. Words are never split; each line greedily packs as many words
// as fit. A single overlong word still gets its own line.
func wrapText(face font.Face, text string, maxWidth int) []string {
	words := strings.Split(text, " ")
	var lines []string
	current := ""
	for _, word := range words {
		test := word
		if current != "" {
			test = current + " " + word
		}
		if textWidth(face, test) > maxWidth && current != "" {
			lines = append(lines, current)
			current = word
		} else {
			current = test
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
