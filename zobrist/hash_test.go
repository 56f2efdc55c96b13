package zobrist

import (
	"testing"

	"github.com/matryer/is"
)

func TestHashIsOrderIndependent(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(10)
	is.Equal(z.NumWords(), 10)
	is.Equal(z.Hash([]uint16{1, 4, 7}), z.Hash([]uint16{7, 1, 4}))
	is.True(z.Hash([]uint16{1, 4}) != z.Hash([]uint16{1, 4, 7})) // extremely unlikely to collide
}

func TestToggle(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(10)
	h := z.Hash([]uint16{2, 3})
	h1 := z.Toggle(h, 5)
	is.Equal(h1, z.Hash([]uint16{2, 3, 5}))
	// toggling again removes it.
	is.Equal(z.Toggle(h1, 5), h)
	is.Equal(z.Hash(nil), uint64(0))
	is.True(z.Key(0) != 0)
}
