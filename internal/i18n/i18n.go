// Package i18n translates keyed phrases with %{name} interpolation.
package i18n

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed en.yaml
var enYAML []byte

// Translator translates phrase keys.
type Translator interface {
	T(key string, vars ...Vars) string
}

// Vars are interpolation values.
type Vars map[string]any

// Phrases is a flattened dotted-key phrase table.
type Phrases map[string]string

// Locale is a Translator backed by a phrase table. Missing keys
// translate to themselves.
type Locale struct {
	phrases Phrases
}

// English returns the embedded English locale.
func English() *Locale {
	loc, err := Parse(enYAML)
	if err != nil {
		panic(fmt.Sprintf("i18n: embedded en.yaml: %v", err))
	}
	return loc
}

// Parse loads a nested YAML phrase document.
func Parse(data []byte) (*Locale, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse locale: %w", err)
	}
	phrases := Phrases{}
	if err := flatten("", doc, phrases); err != nil {
		return nil, err
	}
	return &Locale{phrases: phrases}, nil
}

func flatten(prefix string, node map[string]any, out Phrases) error {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			if err := flatten(key, val, out); err != nil {
				return err
			}
		case string:
			out[key] = val
		default:
			return fmt.Errorf("locale key %s: unsupported value %T", key, v)
		}
	}
	return nil
}

// Has reports whether key has a phrase.
func (l *Locale) Has(key string) bool {
	_, ok := l.phrases[key]
	return ok
}

// T translates key. A smart_count var selects the singular or plural
// form of a "one |||| many" phrase.
func (l *Locale) T(key string, vars ...Vars) string {
	phrase, ok := l.phrases[key]
	if !ok {
		return key
	}

	merged := Vars{}
	for _, v := range vars {
		for k, val := range v {
			merged[k] = val
		}
	}

	if count, ok := merged["smart_count"]; ok {
		phrase = pluralForm(phrase, count)
	}
	return interpolate(phrase, merged)
}

func pluralForm(phrase string, count any) string {
	forms := strings.Split(phrase, "||||")
	if len(forms) < 2 {
		return phrase
	}
	n, err := strconv.ParseFloat(fmt.Sprint(count), 64)
	idx := 1
	if err == nil && n == 1 {
		idx = 0
	}
	return strings.TrimSpace(forms[idx])
}

// interpolate replaces %{name} with vars[name]. Unknown names are left as is.
func interpolate(phrase string, vars Vars) string {
	if len(vars) == 0 || !strings.Contains(phrase, "%{") {
		return phrase
	}

	var b strings.Builder
	for {
		start := strings.Index(phrase, "%{")
		if start < 0 {
			b.WriteString(phrase)
			break
		}
		end := strings.IndexByte(phrase[start:], '}')
		if end < 0 {
			b.WriteString(phrase)
			break
		}
		end += start

		name := phrase[start+2 : end]
		b.WriteString(phrase[:start])
		if v, ok := vars[name]; ok {
			b.WriteString(fmt.Sprint(v))
		} else {
			b.WriteString(phrase[start : end+1])
		}
		phrase = phrase[end+1:]
	}
	return b.String()
}
