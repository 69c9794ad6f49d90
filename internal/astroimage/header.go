package astroimage

import (
	"errors"
	"fmt"
)

// ErrKeywordNotFound reports a header lookup for a keyword that is not
// present. It is distinguishable from a type mismatch, which is reported
// as a *KeywordTypeError.
var ErrKeywordNotFound = errors.New("astroimage: keyword not found")

// KeywordTypeError reports a keyword that exists but holds a value of an
// unexpected type.
type KeywordTypeError struct {
	Keyword string
	Value   interface{}
}

func (e *KeywordTypeError) Error() string {
	return fmt.Sprintf("astroimage: keyword %s has type %T, not numeric", e.Keyword, e.Value)
}

// HeaderCard is a header value with its comment.
type HeaderCard struct {
	Value   interface{}
	Comment string
}

// Header is an ordered keyword table with keys normalized to uppercase at
// the boundary. Lookups elsewhere never depend on case.
type Header struct {
	order []string
	cards map[string]HeaderCard
}

// NewHeader returns an empty header.
func NewHeader() *Header {
	return &Header{cards: make(map[string]HeaderCard)}
}

func normalizeKey(name string) string {
	// header keys are restricted ASCII; avoid a Unicode-aware upper
	b := []byte(name)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// Set stores a value under the upcased keyword, appending to the key
// order when the keyword is new.
func (h *Header) Set(name string, value interface{}, comment string) {
	key := normalizeKey(name)
	if _, exists := h.cards[key]; !exists {
		h.order = append(h.order, key)
	}
	prev := h.cards[key]
	if comment == "" {
		comment = prev.Comment
	}
	h.cards[key] = HeaderCard{Value: value, Comment: comment}
}

// Get returns the value stored under the keyword.
func (h *Header) Get(name string) (interface{}, bool) {
	card, ok := h.cards[normalizeKey(name)]
	return card.Value, ok
}

// Card returns the full card stored under the keyword.
func (h *Header) Card(name string) (HeaderCard, bool) {
	card, ok := h.cards[normalizeKey(name)]
	return card, ok
}

// Keys returns the keywords in insertion order.
func (h *Header) Keys() []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// Len returns the number of cards.
func (h *Header) Len() int { return len(h.order) }

// Copy returns an independent header with the same cards and order.
func (h *Header) Copy() *Header {
	h2 := NewHeader()
	h2.order = make([]string, len(h.order))
	copy(h2.order, h.order)
	for k, v := range h.cards {
		h2.cards[k] = v
	}
	return h2
}

// Float returns the keyword coerced to float64. It implements the
// wcs.Keywords lookup interface.
func (h *Header) Float(name string) (float64, bool) {
	v, ok := h.Get(name)
	if !ok {
		return 0, false
	}
	f, ok := coerceFloat(v)
	return f, ok
}

// String returns the keyword as a string. It implements the wcs.Keywords
// lookup interface.
func (h *Header) String(name string) (string, bool) {
	v, ok := h.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func coerceFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
