package batch

import (
	"strings"
	"unicode/utf8"
)

func init() {
	Register("wc", func() Analyzer {
		return &WordCountAnalyzer{}
	})
}

// WordCountAnalyzer counts lines, words and characters.
type WordCountAnalyzer struct{}

func (wc *WordCountAnalyzer) Name() string {
	return "wc"
}

func (wc *WordCountAnalyzer) Describe() string {
	return "counts lines, words and characters in each file"
}

func (wc *WordCountAnalyzer) Configure(map[string]string) error {
	return nil
}

func (wc *WordCountAnalyzer) Validate() error {
	return nil
}

func (wc *WordCountAnalyzer) Analyze(lines []Line) []KeyValue {
	var words, chars int
	for _, line := range lines {
		for range strings.FieldsSeq(line.Text) {
			words++
		}
		chars += utf8.RuneCountInString(line.Text)
	}
	return []KeyValue{
		{Key: "lines", Value: len(lines)},
		{Key: "words", Value: words},
		{Key: "chars", Value: chars},
	}
}
