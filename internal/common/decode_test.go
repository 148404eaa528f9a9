package common

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type decodeInner struct {
	Stock *int `json:"stock"`
}

type decodeEmbedded struct {
	Current *int `json:"stockActual"`
}

type decodeTarget struct {
	Name  string       `json:"name"`
	Inner *decodeInner `json:"producto"`
	decodeEmbedded
}

func TestDecodeJSONFatalErrors(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "request body is empty"},
		{`{"name":`, "request body is not valid JSON"},
		{`{"name" 1}`, "request body is not valid JSON"},
		{`[1,2]`, "request body must be a JSON object"},
	}
	for _, tc := range cases {
		var dst decodeTarget
		issues, err := DecodeJSON(strings.NewReader(tc.in), &dst)
		require.EqualError(t, err, tc.want, tc.in)
		require.Nil(t, issues)
	}
}

func TestDecodeJSONKeepsDecodingPastTypeMismatch(t *testing.T) {
	var dst decodeTarget
	issues, err := DecodeJSON(strings.NewReader(`{"stockActual":2.5,"name":"Widget"}`), &dst)
	require.NoError(t, err)
	require.Equal(t, []FieldIssue{{Field: "stockActual", Message: "stockActual must be an integer"}}, issues)
	require.Equal(t, "Widget", dst.Name)
	require.Equal(t, []string{"stockActual"}, IssueFields(issues))
	require.Equal(t, []string{"stockActual must be an integer"}, IssueMessages(issues))
}

func TestDecodeJSONNestedPath(t *testing.T) {
	var dst decodeTarget
	issues, err := DecodeJSON(strings.NewReader(`{"producto":{"stock":"many"}}`), &dst)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Equal(t, "producto.stock", issues[0].Field)
	require.Equal(t, "producto.stock must be an integer", issues[0].Message)

	issues, err = DecodeJSON(strings.NewReader(`{"name":true}`), &dst)
	require.NoError(t, err)
	require.Equal(t, "name must be a string", issues[0].Message)
}

func TestJSONPathDropsEmbeddedNames(t *testing.T) {
	var dst decodeTarget
	require.Equal(t, "stockActual", jsonPath(reflect.TypeOf(&dst), "decodeEmbedded.stockActual"))
	require.Equal(t, "producto.stock", jsonPath(reflect.TypeOf(&dst), "producto.stock"))
}
