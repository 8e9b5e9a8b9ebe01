package models

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
)

type ElementType string

const (
	ElementLink   ElementType = "link"
	ElementSlider ElementType = "slider"
	ElementText   ElementType = "text"
)

const (
	MinCoord = 0.0
	MaxCoord = 100.0

	// anchor used when a stored element carries no usable coordinate
	fallbackCoord = 50.0
)

func (t ElementType) Valid() bool {
	switch t {
	case ElementLink, ElementSlider, ElementText:
		return true
	}
	return false
}

// Element is one overlay annotation. X and Y are percentages of the rendered
// 9:16 frame, never of the source image.
type Element struct {
	Type    ElementType `json:"type"`
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
	Text    string      `json:"text,omitempty"`
	URL     string      `json:"url,omitempty"`
	Emoji   string      `json:"emoji,omitempty"`
	Content string      `json:"content,omitempty"`
}

// Interactive reports whether a tap on the element is consumed by it instead
// of reaching the navigation zones underneath.
func (e Element) Interactive() bool {
	return e.Type == ElementLink || e.Type == ElementSlider
}

// Label is the short human description used in element lists.
func (e Element) Label() string {
	switch e.Type {
	case ElementLink:
		return "link: " + e.Text
	case ElementSlider:
		return "slider " + e.Emoji
	case ElementText:
		return "text: " + e.Content
	}
	return string(e.Type)
}

func ClampCoord(v float64) float64 {
	if v != v { // NaN
		return fallbackCoord
	}
	return min(max(v, MinCoord), MaxCoord)
}

type Elements []Element

func (es Elements) MarshalJSON() ([]byte, error) {
	if es == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Element(es))
}

func (es *Elements) UnmarshalJSON(data []byte) error {
	parsed, err := ParseElements(data)
	if err != nil {
		return err
	}
	*es = parsed
	return nil
}

func (es Elements) Count(t ElementType) int {
	n := 0
	for _, e := range es {
		if e.Type == t {
			n++
		}
	}
	return n
}

// maxStringNesting bounds how many times an element list may be JSON-encoded
// inside a string before it is rejected.
const maxStringNesting = 2

// ParseElements normalizes every stored shape of an element list: a JSON array,
// a JSON string holding an array, an object of values keyed by position, a
// single element object, or null/empty. Unknown element types are dropped.
func ParseElements(raw []byte) (Elements, error) {
	return parseElements(raw, 0)
}

func parseElements(raw []byte, depth int) (Elements, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Elements{}, nil
	}

	switch raw[0] {
	case '"':
		if depth >= maxStringNesting {
			return nil, fmt.Errorf("elements: string nesting deeper than %d", maxStringNesting)
		}
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("elements: decoding string form: %w", err)
		}
		return parseElements([]byte(inner), depth+1)

	case '[':
		var items []any
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("elements: decoding array form: %w", err)
		}
		return fromValues(items), nil

	case '{':
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("elements: decoding object form: %w", err)
		}
		if _, single := obj["type"]; single {
			return fromValues([]any{obj}), nil
		}
		return fromValues(orderedValues(obj)), nil
	}

	return nil, fmt.Errorf("elements: unsupported JSON value starting with %q", raw[0])
}

// orderedValues mirrors object-values ordering: integer keys ascending first,
// remaining keys sorted lexically.
func orderedValues(obj map[string]any) []any {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, errI := strconv.Atoi(keys[i])
		nj, errJ := strconv.Atoi(keys[j])
		switch {
		case errI == nil && errJ == nil:
			return ni < nj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		}
		return keys[i] < keys[j]
	})

	values := make([]any, 0, len(keys))
	for _, k := range keys {
		values = append(values, obj[k])
	}
	return values
}

func fromValues(items []any) Elements {
	out := make(Elements, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		el, ok := elementFromMap(m)
		if !ok {
			continue
		}
		out = append(out, el)
	}
	return out
}

func elementFromMap(m map[string]any) (Element, bool) {
	t := ElementType(cast.ToString(m["type"]))
	if !t.Valid() {
		return Element{}, false
	}
	return Element{
		Type:    t,
		X:       coord(m["x"]),
		Y:       coord(m["y"]),
		Text:    cast.ToString(m["text"]),
		URL:     cast.ToString(m["url"]),
		Emoji:   cast.ToString(m["emoji"]),
		Content: cast.ToString(m["content"]),
	}, true
}

func coord(v any) float64 {
	if v == nil {
		return fallbackCoord
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return fallbackCoord
	}
	return ClampCoord(f)
}
