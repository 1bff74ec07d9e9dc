package messages

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var jsonNull = []byte(`null`)

// ContentOrParts represents either a simple string content or a collection of
// content parts. It serializes to a plain JSON string for text-only messages
// and to an array for multi-part content.
type ContentOrParts struct {
	Content string
	Parts   []ContentPart
	_       struct{} // require keyed usage
}

// MarshalJSON returns the Content as a JSON string when set, otherwise the
// Parts as a JSON array, and null when both are empty.
func (c ContentOrParts) MarshalJSON() ([]byte, error) {
	if strings.TrimSpace(c.Content) != "" {
		return json.Marshal(c.Content)
	}
	if c.Parts == nil {
		return jsonNull, nil
	}
	return json.Marshal(c.Parts)
}

// UnmarshalJSON handles both string content and arrays of content parts.
func (c *ContentOrParts) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	jv := gjson.ParseBytes(input)
	if jv.IsArray() {
		aj := jv.Array()
		parts := make([]ContentPart, len(aj))
		for idx, ajv := range aj {
			tpe := ajv.Get("type").String()
			switch tpe {
			case "text":
				var part TextContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid text part at %d: %w", idx, err)
				}
				parts[idx] = part
			case "image":
				var part ImageContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid image part at %d: %w", idx, err)
				}
				parts[idx] = part
			default:
				return fmt.Errorf("content part at %d has an unknown type %q", idx, tpe)
			}
		}
		c.Parts = parts
		return nil
	}
	c.Content = jv.String()
	return nil
}

// AssistantContentOrParts represents assistant output that can be a simple
// string, a refusal, or a collection of assistant content parts.
type AssistantContentOrParts struct {
	Content string
	Parts   []AssistantContentPart
	Refusal string
	_       struct{} // require keyed usage
}

// MarshalJSON serializes the content, refusal or parts. Setting both Content
// and Refusal is an error.
func (c AssistantContentOrParts) MarshalJSON() ([]byte, error) {
	if strings.TrimSpace(c.Content) != "" && strings.TrimSpace(c.Refusal) != "" {
		return nil, fmt.Errorf("both Content and Refusal are set")
	}
	if strings.TrimSpace(c.Content) != "" {
		return json.Marshal(c.Content)
	}
	if strings.TrimSpace(c.Refusal) != "" {
		return json.Marshal(c.Refusal)
	}
	if c.Parts == nil {
		return jsonNull, nil
	}
	return json.Marshal(c.Parts)
}

// UnmarshalJSON handles both string content and arrays of assistant parts.
func (c *AssistantContentOrParts) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	jv := gjson.ParseBytes(input)
	if jv.IsArray() {
		aj := jv.Array()
		parts := make([]AssistantContentPart, len(aj))
		for idx, ajv := range aj {
			tpe := ajv.Get("type").String()
			switch tpe {
			case "text":
				var part TextContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid assistant text part at %d: %w", idx, err)
				}
				parts[idx] = part
			case "refusal":
				var part RefusalContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid assistant refusal part at %d: %w", idx, err)
				}
				parts[idx] = part
			default:
				return fmt.Errorf("content part at %d has an unknown type %q", idx, tpe)
			}
		}
		c.Parts = parts
		return nil
	}
	c.Content = jv.String()
	return nil
}

// ContentPart marks structs usable as user message content parts.
type ContentPart interface {
	contentPart()
}

// AssistantContentPart marks structs usable as assistant content parts.
type AssistantContentPart interface {
	assistantContentPart()
}

// Text creates a TextContentPart with the given text.
func Text(text string) TextContentPart {
	return TextContentPart{Text: text}
}

// TextContentPart is a text-only content part. It is valid both in user and
// assistant content.
type TextContentPart struct {
	Text string `json:"text"`
	_    struct{}
}

func (TextContentPart) contentPart()          {}
func (TextContentPart) assistantContentPart() {}

var tcpJSON = []byte(`{"type":"text"}`)

func (t TextContentPart) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes(tcpJSON, "text", t.Text)
}

func (t *TextContentPart) UnmarshalJSON(input []byte) error {
	text := gjson.GetBytes(input, "text")
	if !text.Exists() {
		return errors.New("missing required field 'text'")
	}
	t.Text = text.String()
	return nil
}

// Image creates an ImageContentPart with the given URL.
func Image(url string) ImageContentPart {
	return ImageContentPart{URL: url}
}

// ImageContentPart is an image content part referenced by URL.
type ImageContentPart struct {
	URL    string `json:"image_url"`
	Detail string `json:"detail,omitempty"`
	_      struct{}
}

func (ImageContentPart) contentPart() {}

var icpJSON = []byte(`{"type":"image"}`)

func (i ImageContentPart) MarshalJSON() ([]byte, error) {
	b, err := sjson.SetBytes(icpJSON, "image_url", i.URL)
	if err != nil {
		return nil, err
	}
	if i.Detail != "" {
		return sjson.SetBytes(b, "detail", i.Detail)
	}
	return b, nil
}

func (i *ImageContentPart) UnmarshalJSON(input []byte) error {
	uri := gjson.GetBytes(input, "image_url")
	if !uri.Exists() {
		return errors.New("missing required field 'image_url'")
	}
	i.URL = uri.String()
	i.Detail = gjson.GetBytes(input, "detail").String()
	return nil
}

// Refusal creates a RefusalContentPart with the given reason.
func Refusal(reason string) RefusalContentPart {
	return RefusalContentPart{Refusal: reason}
}

// RefusalContentPart carries a refusal message from the assistant.
type RefusalContentPart struct {
	Refusal string `json:"refusal"`
	_       struct{}
}

func (RefusalContentPart) assistantContentPart() {}

var rcpJSON = []byte(`{"type":"refusal"}`)

func (r RefusalContentPart) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes(rcpJSON, "refusal", r.Refusal)
}

func (r *RefusalContentPart) UnmarshalJSON(input []byte) error {
	refusal := gjson.GetBytes(input, "refusal")
	if !refusal.Exists() {
		return errors.New("missing required field 'refusal'")
	}
	r.Refusal = refusal.String()
	return nil
}
