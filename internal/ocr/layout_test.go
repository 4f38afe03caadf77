package ocr

import (
	"math"
	"testing"
)

func TestWordGaps(t *testing.T) {
	tests := []struct {
		name  string
		words []Word
		want  []float64
	}{
		{"empty", nil, []float64{}},
		{"single", []Word{{X: 10, Width: 5}}, []float64{}},
		{"spaced", []Word{{X: 0, Width: 10}, {X: 14, Width: 6}, {X: 25, Width: 1}}, []float64{4, 5}},
		{"overlap clamps to zero", []Word{{X: 0, Width: 10}, {X: 8, Width: 4}}, []float64{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WordGaps(tt.words)
			if got == nil {
				t.Fatal("WordGaps returned nil, want empty slice")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("gap[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestWordGapsProperty(t *testing.T) {
	xs := []float64{50, 3, 3, 120, 90, 0, 400}
	for n := 1; n <= len(xs); n++ {
		words := make([]Word, n)
		for i := range words {
			words[i] = Word{X: xs[i], Width: float64(i * 7)}
		}
		gaps := WordGaps(words)
		if len(gaps) != n-1 {
			t.Fatalf("n=%d: len(gaps) = %d", n, len(gaps))
		}
		for i, g := range gaps {
			if g < 0 {
				t.Errorf("n=%d: gap[%d] = %v is negative", n, i, g)
			}
		}
	}
}

func TestUnionBox(t *testing.T) {
	x, y, w, h := UnionBox([]Word{
		{X: 10, Y: 20, Width: 30, Height: 10},
		{X: 50, Y: 18, Width: 20, Height: 14},
	})
	if x != 10 || y != 18 || w != 60 || h != 14 {
		t.Errorf("UnionBox = (%v,%v,%v,%v), want (10,18,60,14)", x, y, w, h)
	}
}

func TestSortSpatial(t *testing.T) {
	lines := []Line{
		{Text: "c", X: 5, Y: 40},
		{Text: "b", X: 90, Y: 10},
		{Text: "a", X: 10, Y: 10},
		{Text: "d", X: math.NaN(), Y: 40},
	}
	SortSpatial(lines)

	want := []string{"a", "b", "c", "d"}
	for i, l := range lines {
		if l.Text != want[i] {
			t.Errorf("lines[%d] = %q, want %q", i, l.Text, want[i])
		}
	}
}

func TestJoinLines(t *testing.T) {
	got := JoinLines([]Line{{Text: "first"}, {Text: "second"}})
	if got != "first\nsecond" {
		t.Errorf("JoinLines = %q", got)
	}
	if JoinLines(nil) != "" {
		t.Error("JoinLines(nil) should be empty")
	}
}
