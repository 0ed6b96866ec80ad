package oktahttp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryString_EncodeSortsKeys(t *testing.T) {
	q := NewQueryString()
	q.Add("zeta", "1")
	q.Add("alpha", "2")

	assert.Equal(t, "alpha=2&zeta=1", q.Encode())
}

func TestQueryString_AddPreservesMultipleValues(t *testing.T) {
	q := NewQueryString()
	q.Add("filter", "a")
	q.Add("filter", "b")

	assert.Equal(t, []string{"a", "b"}, q.Values("filter"))
}

func TestQueryString_SetReplaces(t *testing.T) {
	q := NewQueryString()
	q.Add("limit", "10")
	q.Set("limit", "20")

	assert.Equal(t, []string{"20"}, q.Values("limit"))
}

func TestQueryString_EqualIgnoresInsertionOrder(t *testing.T) {
	a := NewQueryString()
	a.Add("x", "1")
	a.Add("y", "2")

	b := NewQueryString()
	b.Add("y", "2")
	b.Add("x", "1")

	assert.True(t, a.Equal(b))
}

func TestQueryString_EqualDetectsDifference(t *testing.T) {
	a := NewQueryString()
	a.Add("x", "1")

	b := NewQueryString()
	b.Add("x", "2")

	assert.False(t, a.Equal(b))
}

func TestQueryString_ReplaceWithRestoresSnapshot(t *testing.T) {
	original := NewQueryString()
	original.Add("filter", "status eq \"ACTIVE\"")

	live := original.Clone()
	live.Add("after", "cursor-1")

	live.ReplaceWith(original)

	assert.True(t, live.Equal(original))
	assert.Empty(t, live.Values("after"))
}
