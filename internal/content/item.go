// Package content defines the retrievable content item model shared by the
// data providers and the retrieval/response agents.
package content

import (
	"fmt"
	"strings"
	"time"
)

const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldTags        = "tags"

	// DefaultDescription backfills items that arrive without a description.
	DefaultDescription = "No description available"
)

// Item is one retrievable unit of content. There is no fixed schema beyond a
// required non-empty title; every other field is free-form and addressed by
// its lower-cased field key.
type Item map[string]interface{}

// Title returns the item's title, empty when unset.
func (i Item) Title() string {
	return i.StringField(FieldTitle)
}

// StringField returns the named field rendered as a string. Array-valued
// fields are joined with ", " so substring matching can treat them uniformly.
func (i Item) StringField(name string) string {
	v, ok := i[name]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, ", ")
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, fmt.Sprintf("%v", e))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Tags returns the normalized tag list. Scalar tag values are split on
// commas; array values are stringified element-wise.
func (i Item) Tags() []string {
	v, ok := i[FieldTags]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	case []interface{}:
		tags := make([]string, 0, len(t))
		for _, e := range t {
			tags = append(tags, strings.TrimSpace(fmt.Sprintf("%v", e)))
		}
		return tags
	default:
		raw := strings.Split(fmt.Sprintf("%v", t), ",")
		tags := make([]string, 0, len(raw))
		for _, r := range raw {
			if s := strings.TrimSpace(r); s != "" {
				tags = append(tags, s)
			}
		}
		return tags
	}
}

// Clone returns a shallow copy so per-request normalization never mutates
// provider-owned data.
func (i Item) Clone() Item {
	out := make(Item, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}

// Normalize backfills the title and description placeholders and rewrites
// tags into a string slice. It returns a copy; the receiver is unchanged.
func (i Item) Normalize() Item {
	out := i.Clone()
	if strings.TrimSpace(out.StringField(FieldTitle)) == "" {
		out[FieldTitle] = "Untitled"
	}
	if strings.TrimSpace(out.StringField(FieldDescription)) == "" {
		out[FieldDescription] = DefaultDescription
	}
	if _, ok := out[FieldTags]; ok {
		out[FieldTags] = i.Tags()
	}
	return out
}

// StampProvenance records which source produced the item and when.
func (i Item) StampProvenance(source string, at time.Time) {
	i["_source"] = source
	i["_retrieved_at"] = at.UTC().Format(time.RFC3339)
}

// NormalizeFieldKey folds a raw header or column name into the canonical
// field key form: lower-cased, inner whitespace collapsed to single
// underscores.
func NormalizeFieldKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	return strings.Join(strings.Fields(key), "_")
}
