package batch

import (
	"fmt"
	"regexp"
	"strings"
)

func init() {
	Register("grep", func() Analyzer {
		return &GrepAnalyzer{}
	})
}

// GrepAnalyzer counts lines matching a regular expression.
type GrepAnalyzer struct {
	pattern *regexp.Regexp
}

func (g *GrepAnalyzer) Name() string {
	return "grep"
}

func (g *GrepAnalyzer) Describe() string {
	return "counts lines matching a specified pattern"
}

func (g *GrepAnalyzer) Configure(config map[string]string) error {
	expr, ok := config["pattern"]
	if !ok {
		return fmt.Errorf("pattern must be specified in the analyzer configuration")
	}

	if cs, ok := config["case-sensitive"]; ok && (strings.ToLower(cs) == "false" || cs == "0") {
		expr = "(?i)" + expr
	}

	pattern, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("invalid regex pattern: %w", err)
	}
	g.pattern = pattern
	return nil
}

func (g *GrepAnalyzer) Validate() error {
	if g.pattern == nil {
		return fmt.Errorf("pattern must be specified in the analyzer configuration")
	}
	return nil
}

func (g *GrepAnalyzer) Analyze(lines []Line) []KeyValue {
	matches, first := 0, 0
	for _, line := range lines {
		if g.pattern.MatchString(line.Text) {
			if matches == 0 {
				first = line.Number
			}
			matches++
		}
	}
	return []KeyValue{
		{Key: "matches", Value: matches},
		{Key: "first_match_line", Value: first},
	}
}
