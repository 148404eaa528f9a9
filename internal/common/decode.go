package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// FieldIssue is a request field whose JSON value had the wrong type.
type FieldIssue struct {
	Field   string
	Message string
}

// DecodeJSON decodes body into dst. An empty or malformed body is an error.
// A value of the wrong type does not stop decoding: it comes back as a
// FieldIssue and the remaining fields of dst are still populated, so callers
// can report it together with validation errors. encoding/json keeps
// only the first such mismatch.
func DecodeJSON(body io.Reader, dst any) ([]FieldIssue, error) {
	err := json.NewDecoder(body).Decode(dst)
	if err == nil {
		return nil, nil
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return nil, errors.New("request body is empty")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return nil, errors.New("request body is not valid JSON")
	case errors.As(err, &typeErr):
		field := jsonPath(reflect.TypeOf(dst), typeErr.Field)
		if field == "" {
			return nil, errors.New("request body must be a JSON object")
		}
		return []FieldIssue{{Field: field, Message: fmt.Sprintf("%s must be %s", field, kindNoun(typeErr.Type))}}, nil
	default:
		return nil, err
	}
}

// IssueMessages returns the message of every issue.
func IssueMessages(issues []FieldIssue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Message)
	}
	return out
}

// IssueFields returns the field path of every issue.
func IssueFields(issues []FieldIssue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Field)
	}
	return out
}

// jsonPath rewrites a decoder field path into JSON key names, dropping the
// Go names of embedded structs.
func jsonPath(t reflect.Type, path string) string {
	if path == "" {
		return ""
	}
	var out []string
	for _, seg := range strings.Split(path, ".") {
		t = structOf(t)
		if t == nil {
			out = append(out, seg)
			continue
		}
		if f, ok := t.FieldByName(seg); ok && f.Anonymous && f.Tag.Get("json") == "" {
			t = f.Type
			continue
		}
		var next reflect.Type
		for _, f := range reflect.VisibleFields(t) {
			if !f.Anonymous && jsonFieldName(f) == seg {
				next = f.Type
				break
			}
		}
		out = append(out, seg)
		t = next
	}
	return strings.Join(out, ".")
}

func structOf(t reflect.Type) reflect.Type {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map:
			t = t.Elem()
		case reflect.Struct:
			return t
		default:
			return nil
		}
	}
	return nil
}

func kindNoun(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "a valid value"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	default:
		return "a valid value"
	}
}
