// Package ocr recognizes text in an image through the host platform's OCR
// backend and reconstructs it into ordered, gap-annotated lines.
package ocr

// Word is one recognized token. Coordinates are pixels in the source image
// with y measured from the top edge.
type Word struct {
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Line is a run of words on one visual text line. WordGaps holds the
// horizontal space between consecutive words.
type Line struct {
	Text     string    `json:"text"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Words    []Word    `json:"words"`
	WordGaps []float64 `json:"word_gaps"`
}

// Result is the outcome of one recognition call.
type Result struct {
	Text  string `json:"text"`
	Lines []Line `json:"lines"`
}

// NewResult builds a result whose flattened text follows the given line order.
func NewResult(lines []Line) *Result {
	if lines == nil {
		lines = []Line{}
	}
	return &Result{Text: JoinLines(lines), Lines: lines}
}
