package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DecodeError is a malformed request body. Message is safe to show clients.
type DecodeError struct {
	Message string
}

func (e *DecodeError) Error() string {
	return e.Message
}

// writeFields is a JSON object split into raw attribute values.
type writeFields map[string]json.RawMessage

func decodeObject(body []byte) (writeFields, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &DecodeError{Message: "Syntax error"}
	}
	var fields writeFields
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, &DecodeError{Message: "Syntax error"}
	}
	if fields == nil {
		return nil, &DecodeError{Message: "Syntax error"}
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// jsonTypeName names the JSON type of raw the way type errors report it.
func jsonTypeName(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "NULL"
	}
	switch trimmed[0] {
	case '"':
		return "string"
	case '{', '[':
		return "array"
	case 't', 'f':
		return "bool"
	case 'n':
		return "NULL"
	}
	if bytes.ContainsAny(trimmed, ".eE") {
		return "float"
	}
	return "int"
}

func typeError(attr, want string, raw json.RawMessage) error {
	return &DecodeError{Message: fmt.Sprintf(
		"The type of the %q attribute must be %q, %q given.", attr, want, jsonTypeName(raw),
	)}
}

// stringField decodes a non-nullable string attribute. It returns nil when
// the attribute is absent.
func (f writeFields) stringField(attr string) (*string, error) {
	raw, present := f[attr]
	if !present {
		return nil, nil
	}
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return nil, typeError(attr, "string", raw)
	}
	return &s, nil
}

// nullableString decodes a string attribute that accepts null.
func (f writeFields) nullableString(attr string) (set bool, value *string, err error) {
	raw, present := f[attr]
	if !present {
		return false, nil, nil
	}
	if isNull(raw) {
		return true, nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, nil, typeError(attr, "string", raw)
	}
	return true, &s, nil
}

// nullableDate decodes a date attribute that accepts null.
func (f writeFields) nullableDate(attr string) (set bool, value *time.Time, err error) {
	set, s, err := f.nullableString(attr)
	if err != nil || s == nil {
		return set, nil, err
	}
	t, err := ParseDate(*s)
	if err != nil {
		return false, nil, &DecodeError{Message: fmt.Sprintf(
			"The %q attribute must be a date (YYYY-MM-DD or RFC 3339), %q given.", attr, *s,
		)}
	}
	return true, &t, nil
}
