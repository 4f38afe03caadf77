package ocr

import "strings"

// ServiceWord is a word as reported by a structured OCR service.
type ServiceWord struct {
	Text                string
	X, Y, Width, Height float64
}

// ServiceLine is a line as reported by a structured OCR service. The
// service decides grouping; Text may be empty when only words are known.
type ServiceLine struct {
	Text                string
	X, Y, Width, Height float64
	Words               []ServiceWord
}

// FromService translates a service's line model into a Result, keeping the
// service's line order and computing gaps from word geometry. Blank words
// are dropped, as are lines left with neither text nor words.
func FromService(src []ServiceLine) *Result {
	lines := make([]Line, 0, len(src))
	for _, sl := range src {
		words := make([]Word, 0, len(sl.Words))
		for _, sw := range sl.Words {
			text := strings.TrimSpace(sw.Text)
			if text == "" {
				continue
			}
			words = append(words, Word{Text: text, X: sw.X, Y: sw.Y, Width: sw.Width, Height: sw.Height})
		}

		text := strings.TrimSpace(sl.Text)
		if text == "" && len(words) == 0 {
			continue
		}
		line := Line{
			Text:     text,
			X:        sl.X,
			Y:        sl.Y,
			Width:    sl.Width,
			Height:   sl.Height,
			Words:    words,
			WordGaps: WordGaps(words),
		}
		if line.Text == "" {
			line.Text = JoinWords(words)
		}
		if sl.Width <= 0 && sl.Height <= 0 && len(words) > 0 {
			line.X, line.Y, line.Width, line.Height = UnionBox(words)
		}
		lines = append(lines, line)
	}
	return NewResult(lines)
}
