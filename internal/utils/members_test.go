package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembersKeyIsOrderInsensitive(t *testing.T) {
	k1, err := MembersKey("user_b", "user_a")
	require.NoError(t, err)
	k2, err := MembersKey("user_a", "user_b")
	require.NoError(t, err)
	assert.Equal(t, "user_a|user_b", k1)
	assert.Equal(t, k1, k2)
}

func TestMembersKeyRejectsSeparator(t *testing.T) {
	key, err := MembersKey("a|b", "c")
	require.Error(t, err)
	assert.Empty(t, key)
}

func TestMembersKeyRejectsEmpty(t *testing.T) {
	_, err := MembersKey("", "bob")
	assert.Error(t, err)
}

func TestUnionMembers(t *testing.T) {
	got := UnionMembers("me", []string{"a", "me", "b", "a", " ", ""})
	assert.Equal(t, []string{"me", "a", "b"}, got)
}

func TestSortedMembersDoesNotMutateInput(t *testing.T) {
	in := []string{"c", "a", "b"}
	out := SortedMembers(in)
	assert.Equal(t, []string{"a", "b", "c"}, out)
	assert.Equal(t, []string{"c", "a", "b"}, in)
}
