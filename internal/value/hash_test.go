package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskKeyDeterminism(t *testing.T) {
	args := Object{
		"graph": String("demo"),
		"task":  String("a"),
	}

	k1, err := TaskKey("demo.a", args)
	require.NoError(t, err)
	k2, err := TaskKey("demo.a", args)
	require.NoError(t, err)

	assert.Equal(t, k1, k2, "TaskKey must be deterministic")
	assert.Len(t, k1, 64, "SHA-256 hex is 64 characters")
}

func TestTaskKeyChangesWithInput(t *testing.T) {
	args := Object{"task": String("a")}

	k1 := MustTaskKey("demo.a", args)
	k2 := MustTaskKey("demo.b", args)
	k3 := MustTaskKey("demo.a", Object{"task": String("b")})

	assert.NotEqual(t, k1, k2, "different names should produce different keys")
	assert.NotEqual(t, k1, k3, "different args should produce different keys")
}

func TestTaskKeyNilArgsEqualsEmpty(t *testing.T) {
	k1, err := TaskKey("demo.a", nil)
	require.NoError(t, err)
	k2, err := TaskKey("demo.a", Object{})
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestContentHashDomainSeparation(t *testing.T) {
	// The same canonical bytes under different domains must not collide.
	obj := Object{"name": String("x"), "args": Object{}}

	cellHash, err := ContentHash(obj)
	require.NoError(t, err)
	taskKey, err := TaskKey("x", Object{})
	require.NoError(t, err)

	assert.NotEqual(t, cellHash, taskKey)
}

func TestContentHashAnyMatchesContentHash(t *testing.T) {
	direct, err := ContentHash(Object{"n": Int(1)})
	require.NoError(t, err)
	viaAny, err := ContentHashAny(map[string]any{"n": 1})
	require.NoError(t, err)
	assert.Equal(t, direct, viaAny)
}

func TestContentHashAnyRejectsUnknownTypes(t *testing.T) {
	_, err := ContentHashAny(struct{ X int }{X: 1})
	assert.Error(t, err)
}

func TestMarshalCanonicalAny(t *testing.T) {
	data, err := MarshalCanonicalAny(map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2}`, string(data))
}
