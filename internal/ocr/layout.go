package ocr

import (
	"math"
	"slices"
	"strings"
)

// WordGaps returns max(0, next.X - (cur.X + cur.Width)) for each adjacent
// pair of words.
func WordGaps(words []Word) []float64 {
	if len(words) < 2 {
		return []float64{}
	}
	gaps := make([]float64, 0, len(words)-1)
	for i := 0; i+1 < len(words); i++ {
		cur, next := words[i], words[i+1]
		gaps = append(gaps, math.Max(0, next.X-(cur.X+cur.Width)))
	}
	return gaps
}

// UnionBox returns the componentwise min/max box covering all words.
func UnionBox(words []Word) (x, y, width, height float64) {
	if len(words) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY := words[0].X, words[0].Y
	maxX, maxY := words[0].X+words[0].Width, words[0].Y+words[0].Height
	for _, w := range words[1:] {
		minX = math.Min(minX, w.X)
		minY = math.Min(minY, w.Y)
		maxX = math.Max(maxX, w.X+w.Width)
		maxY = math.Max(maxY, w.Y+w.Height)
	}
	return minX, minY, math.Max(0, maxX-minX), math.Max(0, maxY-minY)
}

// LineFromWords assembles a line whose box, text and gaps derive from its words.
func LineFromWords(words []Word) Line {
	x, y, w, h := UnionBox(words)
	return Line{
		Text:     JoinWords(words),
		X:        x,
		Y:        y,
		Width:    w,
		Height:   h,
		Words:    words,
		WordGaps: WordGaps(words),
	}
}

// JoinWords joins word texts with a single space.
func JoinWords(words []Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// JoinLines joins line texts with a newline.
func JoinLines(lines []Line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

// SortSpatial orders lines top to bottom, then left to right. Equal or
// incomparable (NaN) coordinates compare as ties, which keep input order.
func SortSpatial(lines []Line) {
	slices.SortStableFunc(lines, func(a, b Line) int {
		if c := compareFloat(a.Y, b.Y); c != 0 {
			return c
		}
		return compareFloat(a.X, b.X)
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
