package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONObjectDirect(t *testing.T) {
	obj, err := ParseJSONObject(`{"name": "John Smith"}`)
	require.NoError(t, err)
	assert.Equal(t, "John Smith", obj["name"])
}

func TestParseJSONObjectFenced(t *testing.T) {
	obj, err := ParseJSONObject("```json\n{\"email\": \"a@b.com\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", obj["email"])
}

func TestParseJSONObjectWithProse(t *testing.T) {
	obj, err := ParseJSONObject(`Sure, here is the result: {"mobile": "7089275276"} Hope that helps!`)
	require.NoError(t, err)
	assert.Equal(t, "7089275276", obj["mobile"])
}

func TestParseJSONObjectNested(t *testing.T) {
	obj, err := ParseJSONObject(`prefix {"outer": {"inner": "value"}, "brace_in_string": "}{"} suffix`)
	require.NoError(t, err)
	inner, ok := obj["outer"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "value", inner["inner"])
	assert.Equal(t, "}{", obj["brace_in_string"])
}

func TestParseJSONObjectFailure(t *testing.T) {
	_, err := ParseJSONObject("no json here at all")
	assert.Error(t, err)

	_, err = ParseJSONObject("")
	assert.Error(t, err)
}

func TestStringField(t *testing.T) {
	obj := map[string]interface{}{
		"present":  " Alice ",
		"null":     nil,
		"sentinel": "Not Found",
		"number":   3.0,
	}
	assert.Equal(t, "Alice", stringField(obj, "present"))
	assert.Equal(t, "", stringField(obj, "null"))
	assert.Equal(t, "", stringField(obj, "sentinel"))
	assert.Equal(t, "", stringField(obj, "number"))
	assert.Equal(t, "", stringField(obj, "missing"))
}

func TestStringSliceField(t *testing.T) {
	obj := map[string]interface{}{
		"array":  []interface{}{"python", " django ", ""},
		"single": "java",
		"joined": "a, b , c",
		"null":   nil,
	}
	assert.Equal(t, []string{"python", "django"}, stringSliceField(obj, "array"))
	assert.Equal(t, []string{"java"}, stringSliceField(obj, "single"))
	assert.Equal(t, []string{"a", "b", "c"}, stringSliceField(obj, "joined"))
	assert.Nil(t, stringSliceField(obj, "null"))
	assert.Nil(t, stringSliceField(obj, "missing"))
}
