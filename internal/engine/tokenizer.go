package engine

import (
	"regexp"
	"strings"
)

// Comment and string-literal stripping is best-effort pattern
// substitution, not a full lexer. Nested or escaped constructs may be
// mis-stripped; the tokenizer degrades rather than fails.
var (
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRe  = regexp.MustCompile(`//[^\n]*`)
	hashCommentRe  = regexp.MustCompile(`#[^\n]*`)
	doubleQuoteRe  = regexp.MustCompile(`"(?:[^"\\\n]|\\.)*"`)
	singleQuoteRe  = regexp.MustCompile(`'(?:[^'\\\n]|\\.)*'`)
	backtickRe     = regexp.MustCompile("`[^`]*`")
)

// candidateRe extracts token candidates. Alternative order matters:
// snake_case and kebab-case runs must be tried before plain identifiers
// or "foo_bar" would tokenize as "foo".
var candidateRe = regexp.MustCompile(
	`[a-z0-9]+(?:_[a-z0-9]+)+` + // snake_case runs
		`|[a-z0-9]+(?:-[a-z0-9]+)+` + // kebab-case runs
		`|[a-z][a-zA-Z0-9]*` + // lower-leading identifiers
		`|[A-Z][a-zA-Z0-9]*` + // upper-leading identifiers
		`|[0-9]+` + // integer literals
		`|[+\-*/%=<>!&|^~?:]+` + // operator runs
		`|[(){}\[\];,.]`) // single delimiters

// camelBoundaryRe marks a split point before an uppercase letter that
// follows a lowercase letter.
var camelBoundaryRe = regexp.MustCompile(`([a-z])([A-Z])`)

// stopwords is intentionally tiny; aggressive filtering would discard
// meaningful code vocabulary.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {},
	"not": {}, "with": {}, "this": {}, "that": {}, "from": {},
}

// Tokenize maps code text to a deduplicated list of lowercase tokens.
// It strips comments and quoted literals, extracts identifier-like
// candidates, splits camelCase candidates into their parts (keeping the
// original token as well), and drops short, purely numeric, and stopword
// tokens. Tokenize is pure: identical input yields identical output.
func Tokenize(text string) []string {
	stripped := stripNonCode(text)
	candidates := candidateRe.FindAllString(stripped, -1)

	seen := make(map[string]struct{}, len(candidates))
	tokens := make([]string, 0, len(candidates))
	emit := func(tok string) {
		if !keepToken(tok) {
			return
		}
		if _, dup := seen[tok]; dup {
			return
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}

	for _, cand := range candidates {
		parts := splitCamel(cand)
		for _, part := range parts {
			emit(part)
		}
		if len(parts) > 1 {
			emit(strings.ToLower(cand))
		}
	}
	return tokens
}

// stripNonCode removes comments and quoted literals by pattern
// substitution.
func stripNonCode(text string) string {
	text = blockCommentRe.ReplaceAllString(text, " ")
	text = lineCommentRe.ReplaceAllString(text, " ")
	text = hashCommentRe.ReplaceAllString(text, " ")
	text = doubleQuoteRe.ReplaceAllString(text, " ")
	text = singleQuoteRe.ReplaceAllString(text, " ")
	text = backtickRe.ReplaceAllString(text, " ")
	return text
}

// splitCamel lowercases a candidate and splits it on camelCase
// boundaries. A candidate without boundaries yields a single part.
func splitCamel(candidate string) []string {
	marked := camelBoundaryRe.ReplaceAllString(candidate, "$1 $2")
	parts := strings.Fields(strings.ToLower(marked))
	return parts
}

// keepToken reports whether a token survives filtering: at least two
// characters, not purely numeric, not a stopword.
func keepToken(tok string) bool {
	if len(tok) < 2 {
		return false
	}
	if isNumeric(tok) {
		return false
	}
	if _, stop := stopwords[tok]; stop {
		return false
	}
	return true
}

func isNumeric(tok string) bool {
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(tok) > 0
}

// CalculateTF computes term frequency normalized by token-list length.
// The input is the already-deduplicated list from Tokenize, so every
// present term's frequency is uniformly 1/len(tokens).
func CalculateTF(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	if len(tokens) == 0 {
		return tf
	}
	inc := 1.0 / float64(len(tokens))
	for _, tok := range tokens {
		tf[tok] += inc
	}
	return tf
}
