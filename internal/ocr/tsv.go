package ocr

import (
	"cmp"
	"maps"
	"slices"
	"strconv"
	"strings"

	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
)

// tesseract TSV columns
const (
	colLevel  = 0
	colBlock  = 2
	colPar    = 3
	colLine   = 4
	colWord   = 5
	colLeft   = 6
	colTop    = 7
	colWidth  = 8
	colHeight = 9
	colText   = 11

	minColumns = 12
	wordLevel  = 5
)

type lineKey struct {
	block, par, line int
}

func (k lineKey) compare(o lineKey) int {
	if c := cmp.Compare(k.block, o.block); c != 0 {
		return c
	}
	if c := cmp.Compare(k.par, o.par); c != 0 {
		return c
	}
	return cmp.Compare(k.line, o.line)
}

type tsvWord struct {
	num  int
	word Word
}

// ParseTSV rebuilds lines from tesseract's word-level TSV output. Lines are
// emitted in ascending (block, paragraph, line) order and words within a
// line by word number.
func ParseTSV(output string) (*Result, error) {
	rows := strings.Split(output, "\n")
	if strings.TrimSpace(output) != "" && !strings.Contains(rows[0], "\t") {
		return nil, apperrors.Newf(apperrors.MalformedBackendOutput, "tesseract output is not TSV: %q", truncate(rows[0], 80))
	}

	groups := make(map[lineKey][]tsvWord)
	for _, row := range rows[1:] {
		cols := strings.Split(strings.TrimRight(row, "\r"), "\t")
		if len(cols) < minColumns || atoi(cols[colLevel]) != wordLevel {
			continue
		}
		text := strings.TrimSpace(cols[colText])
		if text == "" {
			continue
		}
		key := lineKey{atoi(cols[colBlock]), atoi(cols[colPar]), atoi(cols[colLine])}
		groups[key] = append(groups[key], tsvWord{
			num: atoi(cols[colWord]),
			word: Word{
				Text:   text,
				X:      atof(cols[colLeft]),
				Y:      atof(cols[colTop]),
				Width:  atof(cols[colWidth]),
				Height: atof(cols[colHeight]),
			},
		})
	}

	keys := slices.SortedFunc(maps.Keys(groups), lineKey.compare)
	lines := make([]Line, 0, len(keys))
	for _, k := range keys {
		group := groups[k]
		slices.SortStableFunc(group, func(a, b tsvWord) int { return cmp.Compare(a.num, b.num) })
		words := make([]Word, len(group))
		for i, g := range group {
			words[i] = g.word
		}
		lines = append(lines, LineFromWords(words))
	}
	return NewResult(lines), nil
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func atof(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
