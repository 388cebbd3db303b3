package grammar

import (
	"fmt"
	"strings"
	"unicode"
)

// Token is a single symbol of an L-system string.
type Token string

// Lex splits str on runs of whitespace. Empty pieces are dropped.
func Lex(str string) []Token {
	fields := strings.Fields(str)
	tokens := make([]Token, len(fields))
	for i, f := range fields {
		tokens[i] = Token(f)
	}
	return tokens
}

// Join renders tokens back into their space separated form.
func Join(tokens []Token) string {
	var b strings.Builder
	for i, t := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(string(t))
	}
	return b.String()
}

// Rule maps a single key token to a replacement string.
type Rule struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// RuleSet is a compiled rule list, ready for rewriting.
type RuleSet map[Token][]Token

// Compile validates rules and lexes their values. Keys must be a single
// non-empty token with no surrounding whitespace, and unique across the
// list.
func Compile(rules []Rule) (RuleSet, error) {
	set := make(RuleSet, len(rules))
	for i, r := range rules {
		key := r.Key
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%w: rule %d has an empty key", ErrInvalidRule, i)
		}
		if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
			return nil, fmt.Errorf("%w: rule key %q contains whitespace", ErrInvalidRule, key)
		}
		if _, exists := set[Token(key)]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRule, key)
		}
		set[Token(key)] = Lex(r.Value)
	}
	return set, nil
}

// MustCompile is like Compile but panics on error. Intended for
// package-level rule tables and tests.
func MustCompile(rules ...Rule) RuleSet {
	set, err := Compile(rules)
	if err != nil {
		panic(err)
	}
	return set
}
