package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Recipe is the structured form of a dictated recipe. The seven canonical
// fields are always encoded; ID, OriginalTranscription and ImageData are
// caller-owned and pass through the pipeline untouched.
type Recipe struct {
	ID                    *int64   `json:"id,omitempty"`
	Title                 string   `json:"title"`
	Description           string   `json:"description"`
	Ingredients           []string `json:"ingredients"`
	Steps                 []string `json:"steps"`
	Duration              string   `json:"duration"`
	Origin                string   `json:"origin"`
	MealType              string   `json:"meal_type"`
	OriginalTranscription *string  `json:"original_transcription,omitempty"`
	ImageData             *string  `json:"image_data,omitempty"`
}

// MarshalJSON keeps empty lists as [] rather than null.
func (r Recipe) MarshalJSON() ([]byte, error) {
	type plain Recipe
	p := plain(r)
	if p.Ingredients == nil {
		p.Ingredients = []string{}
	}
	if p.Steps == nil {
		p.Steps = []string{}
	}
	return json.Marshal(p)
}

// UnmarshalJSON decodes leniently, see DecodeObject.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	var obj Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	decoded, err := DecodeObject(obj)
	if err != nil {
		return err
	}
	*r = decoded
	return nil
}

// Object is a parsed JSON object whose values are still raw. It lets the
// validator check key presence and value kinds before anything is coerced.
type Object map[string]json.RawMessage

// Has reports whether key is present with a non-null value.
func (o Object) Has(key string) bool {
	raw, ok := o[key]
	return ok && !isNull(raw)
}

// DecodeObject converts model or client JSON into a Recipe. Scalars are
// coerced to strings, a bare string where a list is expected becomes a
// one-element list, and list items that are objects are flattened into a
// single line. Missing keys decode to zero values.
func DecodeObject(obj Object) (Recipe, error) {
	var r Recipe
	var err error

	fields := []struct {
		key string
		dst *string
	}{
		{"title", &r.Title},
		{"description", &r.Description},
		{"duration", &r.Duration},
		{"origin", &r.Origin},
		{"meal_type", &r.MealType},
	}
	for _, f := range fields {
		if *f.dst, err = flexString(obj[f.key]); err != nil {
			return Recipe{}, fmt.Errorf("%s: %w", f.key, err)
		}
	}

	if r.Ingredients, err = flexList(obj["ingredients"]); err != nil {
		return Recipe{}, fmt.Errorf("ingredients: %w", err)
	}
	if r.Steps, err = flexList(obj["steps"]); err != nil {
		return Recipe{}, fmt.Errorf("steps: %w", err)
	}

	if r.ID, err = flexID(obj["id"]); err != nil {
		return Recipe{}, fmt.Errorf("id: %w", err)
	}
	if r.ImageData, err = optionalString(obj["image_data"]); err != nil {
		return Recipe{}, fmt.Errorf("image_data: %w", err)
	}
	if r.OriginalTranscription, err = optionalString(obj["original_transcription"]); err != nil {
		return Recipe{}, fmt.Errorf("original_transcription: %w", err)
	}

	return r, nil
}

// callerOwnedKeys are the pass-through fields a completion never owns.
var callerOwnedKeys = []string{"id", "image_data", "original_transcription"}

// without returns a copy of o minus keys. o is not modified.
func (o Object) without(keys ...string) Object {
	out := make(Object, len(o))
	for k, v := range o {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// unusableCallerFields lists the caller-owned keys in o whose values would
// not decode. An edit treats them as omitted.
func unusableCallerFields(o Object) []string {
	var bad []string
	if _, err := flexID(o["id"]); err != nil {
		bad = append(bad, "id")
	}
	for _, key := range []string{"image_data", "original_transcription"} {
		if _, err := optionalString(o[key]); err != nil {
			bad = append(bad, key)
		}
	}
	return bad
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// kind returns the first significant byte of a raw JSON value.
func kind(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func flexString(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	switch kind(raw) {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", fmt.Errorf("expected a string, got %s", describeKind(raw))
	default:
		// numbers and booleans keep their literal spelling
		return string(bytes.TrimSpace(raw)), nil
	}
}

func flexList(raw json.RawMessage) ([]string, error) {
	if isNull(raw) {
		return []string{}, nil
	}
	switch kind(raw) {
	case '[':
	case '{':
		return nil, fmt.Errorf("expected a list, got an object")
	default:
		s, err := flexString(raw)
		if err != nil {
			return nil, err
		}
		if s = strings.TrimSpace(s); s == "" {
			return []string{}, nil
		}
		return []string{s}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		var err error
		if kind(item) == '{' {
			s, err = flattenItem(item)
		} else {
			s, err = flexString(item)
		}
		if err != nil {
			return nil, err
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// itemKeys are read in this order when a model returns list items as
// objects like {"quantity": "200", "unit": "g", "name": "guanciale"}.
var itemKeys = []string{"quantity", "amount", "unit", "name", "ingredient", "item", "step", "instruction", "text", "description"}

func flattenItem(raw json.RawMessage) (string, error) {
	var obj Object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", err
	}
	var parts []string
	for _, key := range itemKeys {
		if s, err := flexString(obj[key]); err == nil && strings.TrimSpace(s) != "" {
			parts = append(parts, strings.TrimSpace(s))
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " "), nil
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return "", err
	}
	return compact.String(), nil
}

func flexID(raw json.RawMessage) (*int64, error) {
	if isNull(raw) {
		return nil, nil
	}
	s, err := flexString(raw)
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("expected an integer, got %q", s)
	}
	return &id, nil
}

func optionalString(raw json.RawMessage) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}
	if kind(raw) != '"' {
		return nil, fmt.Errorf("expected a string, got %s", describeKind(raw))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func describeKind(raw json.RawMessage) string {
	switch kind(raw) {
	case '{':
		return "an object"
	case '[':
		return "a list"
	case '"':
		return "a string"
	case 't', 'f':
		return "a boolean"
	case 'n', 0:
		return "null"
	default:
		return "a number"
	}
}

// withoutImage returns a shallow copy safe to show to the model.
func (r Recipe) withoutImage() Recipe {
	r.ImageData = nil
	return r
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(i *int64) *int64 {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
