package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlake2HashStable(t *testing.T) {
	a := Blake2Hash(Int64sToBytes([]int64{1, 0, 0, 0, 99}))
	b := Blake2Hash(Int64sToBytes([]int64{1, 0, 0, 0, 99}))
	c := Blake2Hash(Int64sToBytes([]int64{2, 0, 0, 0, 99}))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, HexToHash(a.Hex()))
	assert.Len(t, a.String_short(), 10)
}

func TestInt64sToBytes(t *testing.T) {
	b := Int64sToBytes([]int64{1, -1})
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, b)
}

func TestGetCommitHashNeverEmpty(t *testing.T) {
	assert.NotEmpty(t, GetCommitHash())
}
