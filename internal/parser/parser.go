package parser

import "strings"

const (
	// Delimiter separates the stages of a pipeline.
	Delimiter = ";"
	// BackgroundMarker as the last token requests background execution.
	BackgroundMarker = "&"
)

// Parse splits a line on spaces, tabs and newlines. No quoting is honoured.
func Parse(input string) []string {
	return strings.Fields(input)
}

// ParseWithBackground detects trailing & and returns tokens and background flag
func ParseWithBackground(input string) ([]string, bool) {
	tokens := Parse(input)
	if len(tokens) > 0 && tokens[len(tokens)-1] == BackgroundMarker {
		return tokens[:len(tokens)-1], true
	}
	return tokens, false
}

// HasDelimiter reports whether the tokens form a pipeline.
func HasDelimiter(tokens []string) bool {
	return indexDelimiter(tokens) >= 0
}

// TruncateAtDelimiter returns the tokens up to the first delimiter.
func TruncateAtDelimiter(tokens []string) []string {
	if i := indexDelimiter(tokens); i >= 0 {
		return tokens[:i]
	}
	return tokens
}

// SplitStages partitions tokens into pipeline stages. Each stage is a
// subslice of tokens. Empty stages, such as the one after a trailing
// delimiter, are dropped.
func SplitStages(tokens []string) [][]string {
	var stages [][]string
	start := 0
	for i, tok := range tokens {
		if tok != Delimiter {
			continue
		}
		if i > start {
			stages = append(stages, tokens[start:i:i])
		}
		start = i + 1
	}
	if start < len(tokens) {
		stages = append(stages, tokens[start:])
	}
	return stages
}

func indexDelimiter(tokens []string) int {
	for i, tok := range tokens {
		if tok == Delimiter {
			return i
		}
	}
	return -1
}
