package openapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONConvertsEmbeddedDocument(t *testing.T) {
	doc, err := JSON()
	require.NoError(t, err)

	var v map[string]any
	require.NoError(t, json.Unmarshal(doc, &v))
	assert.Equal(t, "3.0.0", v["openapi"])
	paths, ok := v["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/products/{productId}")
	assert.Contains(t, paths, "/")
}

func TestToJSONNonStringKeys(t *testing.T) {
	out, err := ToJSON([]byte("responses:\n  200: ok\n  true: yes\n"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"responses":{"200":"ok","true":"yes"}}`, string(out))
}

func TestToJSONInvalid(t *testing.T) {
	_, err := ToJSON([]byte("a: [unterminated"))
	assert.Error(t, err)
}
