package layout

import (
	"strings"
	"testing"
)

func TestSegmentPairsGreedilyWithoutOverlap(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Unit
	}{
		{
			name:  "even-digit-run",
			input: "1234",
			want:  []Unit{{Text: "12", Paired: true}, {Text: "34", Paired: true}},
		},
		{
			name:  "odd-digit-run-leaves-single-tail",
			input: "123",
			want:  []Unit{{Text: "12", Paired: true}, {Text: "3"}},
		},
		{
			name:  "letters-break-pairing",
			input: "1a2",
			want:  []Unit{{Text: "1"}, {Text: "a"}, {Text: "2"}},
		},
		{
			name:  "pair-between-letters",
			input: "a12b",
			want:  []Unit{{Text: "a"}, {Text: "12", Paired: true}, {Text: "b"}},
		},
		{
			name:  "japanese-date-label-has-no-adjacent-digits",
			input: "3月5日",
			want:  []Unit{{Text: "3"}, {Text: "月"}, {Text: "5"}, {Text: "日"}},
		},
		{
			name:  "fullwidth-digits-never-pair",
			input: "１２",
			want:  []Unit{{Text: "１"}, {Text: "２"}},
		},
		{
			name:  "whitespace-and-punctuation-pass-through",
			input: "p. 12",
			want:  []Unit{{Text: "p"}, {Text: "."}, {Text: " "}, {Text: "12", Paired: true}},
		},
		{
			name:  "empty-input",
			input: "",
			want:  []Unit{},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			got := Segment(testCase.input)
			if len(got) != len(testCase.want) {
				t.Fatalf("unexpected unit count: got %d want %d (%#v)", len(got), len(testCase.want), got)
			}
			for index, unit := range got {
				if unit != testCase.want[index] {
					t.Fatalf("unit %d mismatch: got %#v want %#v", index, unit, testCase.want[index])
				}
			}
		})
	}
}

func TestSegmentReconstructsInput(t *testing.T) {
	inputs := []string{
		"",
		"1",
		"12",
		"1234567890",
		"算数プリント12ページ",
		"漢字ドリル p.34 と p.5",
		"abcXYZ",
		"　全角　空白　",
		"99bottles of 2026",
	}

	for _, input := range inputs {
		var rebuilt strings.Builder
		consumed := 0
		for _, unit := range Segment(input) {
			rebuilt.WriteString(unit.Text)
			runeCount := len([]rune(unit.Text))
			if unit.Paired && runeCount != 2 {
				t.Fatalf("paired unit %q must cover two runes", unit.Text)
			}
			if !unit.Paired && runeCount != 1 {
				t.Fatalf("single unit %q must cover one rune", unit.Text)
			}
			consumed += runeCount
		}
		if rebuilt.String() != input {
			t.Fatalf("reconstruction mismatch: got %q want %q", rebuilt.String(), input)
		}
		if consumed != len([]rune(input)) {
			t.Fatalf("consumed %d runes of %d for %q", consumed, len([]rune(input)), input)
		}
	}
}

func TestClampTextKeepsUnitBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxUnits int
		want     string
	}{
		{name: "short-text-untouched", input: "国語12", maxUnits: 11, want: "国語12"},
		{name: "digit-pair-kept-whole", input: "1234", maxUnits: 1, want: "12"},
		{name: "cut-at-unit-eleven", input: "あいうえおかきくけこさし", maxUnits: 11, want: "あいうえおかきくけこさ"},
		{name: "zero-budget", input: "abc", maxUnits: 0, want: ""},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			got := ClampText(testCase.input, testCase.maxUnits)
			if got != testCase.want {
				t.Fatalf("unexpected clamp: got %q want %q", got, testCase.want)
			}
		})
	}
}
