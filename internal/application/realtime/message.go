package realtime

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/aescanero/skillstream/pkg/domain"
)

// Variant tags how an inbound payload was interpreted
type Variant int

const (
	// VariantOpaque is a payload that did not parse, kept as raw text
	VariantOpaque Variant = iota
	// VariantStructured is a payload that parsed as JSON after quote normalization
	VariantStructured
)

func (v Variant) String() string {
	if v == VariantStructured {
		return "structured"
	}
	return "opaque"
}

var errNullRecord = errors.New("structured message has a null record")

// Message is an inbound stream payload decoded as a tagged variant
type Message struct {
	Variant Variant
	Raw     string
	Record  interface{}
}

// DecodeMessage interprets a stream payload. Single quotes are replaced with
// double quotes before parsing so Python-style dict reprs decode as JSON.
// Anything that still fails to parse becomes an opaque message.
func DecodeMessage(payload string) Message {
	normalized := strings.ReplaceAll(payload, "'", `"`)

	var record interface{}
	if err := json.Unmarshal([]byte(normalized), &record); err != nil {
		return Message{Variant: VariantOpaque, Raw: payload}
	}

	return Message{Variant: VariantStructured, Raw: payload, Record: record}
}

// field returns a top-level field of an object record
func (m Message) field(name string) (interface{}, bool) {
	obj, ok := m.Record.(map[string]interface{})
	if !ok {
		return nil, false
	}
	v, ok := obj[name]
	return v, ok
}

// Type returns the record's "type" field when it is a string
func (m Message) Type() string {
	v, _ := m.field("type")
	s, _ := v.(string)
	return s
}

// IsUpload reports whether the message announces a new resume upload
func (m Message) IsUpload() bool {
	return m.Variant == VariantStructured && m.Type() == domain.EventTypeResumeUploaded
}

// Upload extracts the upload announcement fields that are present
func (m Message) Upload() domain.UploadEvent {
	var ev domain.UploadEvent
	if v, ok := m.field("resume_id"); ok {
		if f, ok := v.(float64); ok {
			ev.ResumeID = int64(f)
		}
	}
	if v, ok := m.field("filename"); ok {
		ev.Filename, _ = truthyText(v)
	}
	if v, ok := m.field("saved_filename"); ok {
		ev.SavedFilename, _ = v.(string)
	}
	return ev
}

// Describe renders the message for a generic update notification: the
// "update" field when set, otherwise the compact JSON record, otherwise the
// raw payload for opaque messages.
func (m Message) Describe() (string, error) {
	if m.Variant == VariantOpaque {
		return m.Raw, nil
	}
	if m.Record == nil {
		return "", errNullRecord
	}
	if v, ok := m.field("update"); ok {
		if text, ok := truthyText(v); ok {
			return text, nil
		}
	}

	data, err := json.Marshal(m.Record)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// truthyText renders a decoded JSON value as display text. Empty strings,
// zero, false and null are treated as absent.
func truthyText(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case bool:
		if !t {
			return "", false
		}
		return "true", true
	case float64:
		if t == 0 {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(data), true
	}
}
