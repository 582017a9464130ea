// Package selector picks a model for a piece of text.
package selector

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	ModelCode    = "phi3"
	ModelLegal   = "llama3"
	ModelDefault = "mistral"
)

type rule struct {
	keywords []string
	model    string
}

// Rules are checked in order, the first rule with a matching keyword wins.
var rules = []rule{
	{keywords: []string{"program", "kod"}, model: ModelCode},
	{keywords: []string{"pravo", "smlouva"}, model: ModelLegal},
}

// Normalize lower-cases text and strips diacritics, so "Kód" becomes "kod".
func Normalize(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, text)
	if err != nil {
		s = text
	}
	return strings.ToLower(s)
}

// Choose returns the preferred model for text.
func Choose(text string) string {
	normalized := Normalize(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(normalized, kw) {
				return r.model
			}
		}
	}
	return ModelDefault
}

// Resolve picks from the available models. A requested model wins when available, then the model
// chosen for text, then the first available model in the order the registry listed them.
func Resolve(text, requested string, available []string) (model string, ok bool) {
	if len(available) == 0 {
		return "", false
	}
	if requested != "" && slices.Contains(available, requested) {
		return requested, true
	}
	if chosen := Choose(text); slices.Contains(available, chosen) {
		return chosen, true
	}
	return available[0], true
}
