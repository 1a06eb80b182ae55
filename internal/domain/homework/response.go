// internal/domain/homework/response.go
package homework

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one homework entry from the API. Pointer fields distinguish
// "absent or null" from an empty value.
type Record struct {
	ID              int64   `json:"id"`
	HomeworkName    *string `json:"homework_name"`
	Status          *string `json:"status"`
	LessonName      string  `json:"lesson_name"`
	ReviewerComment string  `json:"reviewer_comment"`
	DateUpdated     string  `json:"date_updated"`
}

// Response is the validated API answer.
type Response struct {
	Homeworks []Record
	// CurrentDate is the server cursor for the next query, nil when absent.
	CurrentDate *int64
}

// DecodeResponse validates the raw API body and decodes it into a Response.
// Checks run in order: top-level object, "homeworks" present, "homeworks" is
// an array, each element is an object, optional "current_date" is an integer.
func DecodeResponse(body []byte) (*Response, error) {
	if t := jsonType(body); t != "object" {
		return nil, &Error{
			Kind:   KindInvalidResponseShape,
			Detail: fmt.Sprintf("expected mapping, got %s", t),
		}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, &Error{Kind: KindInvalidResponseShape, Detail: "expected mapping, got invalid JSON", Err: err}
	}

	rawHomeworks, ok := top["homeworks"]
	if !ok {
		return nil, missingField("homeworks")
	}
	if t := jsonType(rawHomeworks); t != "array" {
		return nil, invalidFieldType("homeworks", fmt.Sprintf("homeworks is not a list, got %s", t), nil)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(rawHomeworks, &items); err != nil {
		return nil, invalidFieldType("homeworks", "", err)
	}

	resp := &Response{Homeworks: make([]Record, 0, len(items))}
	for i, item := range items {
		field := fmt.Sprintf("homeworks[%d]", i)
		if t := jsonType(item); t != "object" {
			return nil, invalidFieldType(field, fmt.Sprintf("%s is not a mapping, got %s", field, t), nil)
		}
		var rec Record
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, invalidFieldType(field, "", err)
		}
		resp.Homeworks = append(resp.Homeworks, rec)
	}

	if rawDate, ok := top["current_date"]; ok && jsonType(rawDate) != "null" {
		var ts int64
		if err := json.Unmarshal(rawDate, &ts); err != nil {
			return nil, invalidFieldType("current_date", "current_date is not an integer timestamp", err)
		}
		resp.CurrentDate = &ts
	}

	return resp, nil
}

// jsonType names the JSON type of a raw value by its first significant byte.
func jsonType(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "empty body"
	}
	switch c := raw[0]; {
	case c == '{':
		return "object"
	case c == '[':
		return "array"
	case c == '"':
		return "string"
	case c == 't' || c == 'f':
		return "bool"
	case c == 'n':
		return "null"
	case c == '-' || (c >= '0' && c <= '9'):
		return "number"
	default:
		return "invalid JSON"
	}
}
