package logtype

import (
	"errors"
	"fmt"

	"github.com/rzbill/logbook/pkg/id"
)

// Kind discriminates placeholder variants.
type Kind string

const (
	KindText      Kind = "text"
	KindTextInput Kind = "text-input"
	KindSelect    Kind = "select"
	KindNumber    Kind = "number"
)

// Kinds lists every placeholder kind in display order.
var Kinds = []Kind{KindText, KindTextInput, KindSelect, KindNumber}

// ErrInvalidPlaceholder is returned for placeholders with an unknown kind or
// a missing id.
var ErrInvalidPlaceholder = errors.New("logtype: invalid placeholder")

// DefaultOption is the starter option of a new select placeholder.
const DefaultOption = "New Option"

// ParseKind validates s as a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidPlaceholder, s)
}

// NeedsInput reports whether values for this kind come from the user. Only
// static text does not.
func (k Kind) NeedsInput() bool {
	switch k {
	case KindText:
		return false
	case KindTextInput, KindSelect, KindNumber:
		return true
	default:
		panic(fmt.Sprintf("logtype: unknown placeholder kind %q", string(k)))
	}
}

// Placeholder is one field slot of a log type. Which of the optional fields
// are meaningful depends on Kind:
//
//	text        Content (the literal text)
//	text-input  Hint
//	select      Options, Multiple
//	number      none
type Placeholder struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Kind     Kind     `json:"kind"`
	Content  string   `json:"content,omitempty"`
	Hint     string   `json:"placeholder,omitempty"`
	Options  []string `json:"options,omitempty"`
	Multiple bool     `json:"multiple,omitempty"`
}

// NewPlaceholder returns a placeholder with a fresh id and the defaults of kind.
func NewPlaceholder(kind Kind, name string) Placeholder {
	return withKindDefaults(Placeholder{ID: id.New(), Name: name}, kind)
}

// withKindDefaults switches p to kind, dropping every kind-specific field and
// applying the defaults of the new kind.
func withKindDefaults(p Placeholder, kind Kind) Placeholder {
	out := Placeholder{ID: p.ID, Name: p.Name, Kind: kind}
	switch kind {
	case KindText:
		out.Content = ""
	case KindTextInput, KindNumber:
	case KindSelect:
		out.Options = []string{DefaultOption}
		out.Multiple = false
	default:
		panic(fmt.Sprintf("logtype: unknown placeholder kind %q", string(kind)))
	}
	return out
}

// normalize clears fields that are not valid for p.Kind.
func normalize(p Placeholder) Placeholder {
	switch p.Kind {
	case KindText:
		p.Hint, p.Options, p.Multiple = "", nil, false
	case KindTextInput:
		p.Content, p.Options, p.Multiple = "", nil, false
	case KindSelect:
		p.Content, p.Hint = "", ""
		p.Options = append([]string(nil), p.Options...)
	case KindNumber:
		p.Content, p.Hint, p.Options, p.Multiple = "", "", nil, false
	default:
		panic(fmt.Sprintf("logtype: unknown placeholder kind %q", string(p.Kind)))
	}
	return p
}

// PlaceholderPatch carries the fields of a placeholder edit. Nil fields are
// left unchanged. A Kind change resets the placeholder to the new kind's
// defaults before the remaining fields are applied; fields that do not belong
// to the resulting kind are ignored.
type PlaceholderPatch struct {
	Name     *string  `json:"name,omitempty"`
	Kind     *Kind    `json:"kind,omitempty"`
	Content  *string  `json:"content,omitempty"`
	Hint     *string  `json:"placeholder,omitempty"`
	Options  []string `json:"options,omitempty"`
	Multiple *bool    `json:"multiple,omitempty"`
}

func (pp PlaceholderPatch) apply(p Placeholder) Placeholder {
	if pp.Kind != nil && *pp.Kind != p.Kind {
		p = withKindDefaults(p, *pp.Kind)
	}
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Content != nil {
		p.Content = *pp.Content
	}
	if pp.Hint != nil {
		p.Hint = *pp.Hint
	}
	if pp.Options != nil {
		p.Options = pp.Options
	}
	if pp.Multiple != nil {
		p.Multiple = *pp.Multiple
	}
	return normalize(p)
}

func clonePlaceholders(ps []Placeholder) []Placeholder {
	if ps == nil {
		return nil
	}
	out := make([]Placeholder, len(ps))
	for i, p := range ps {
		p.Options = append([]string(nil), p.Options...)
		if len(p.Options) == 0 {
			p.Options = nil
		}
		out[i] = p
	}
	return out
}
