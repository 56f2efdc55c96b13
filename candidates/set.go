// Package candidates holds the sets of words still consistent with the
// feedback seen so far, and splits them by the feedback a guess would get.
package candidates

import (
	"encoding/binary"
	"slices"

	"github.com/sethoscope/wordle-brute/zobrist"
)

// Set is an immutable set of word indices kept in ascending order. Its
// zobrist hash is maintained alongside the members.
type Set struct {
	members []uint16
	hash    uint64
}

// New builds a set from arbitrary word indices; order and duplicates are
// ignored.
func New(z *zobrist.Zobrist, words []int) Set {
	members := make([]uint16, len(words))
	for i, w := range words {
		members[i] = uint16(w)
	}
	slices.Sort(members)
	members = slices.Compact(members)
	return Set{members: members, hash: z.Hash(members)}
}

// Full is the set of every word in the lexicon.
func Full(z *zobrist.Zobrist, numWords int) Set {
	members := make([]uint16, numWords)
	for i := range members {
		members[i] = uint16(i)
	}
	return Set{members: members, hash: z.Hash(members)}
}

func (s Set) Len() int {
	return len(s.members)
}

// Members returns the sorted member indices. The slice must not be
// modified.
func (s Set) Members() []uint16 {
	return s.members
}

func (s Set) Member(i int) int {
	return int(s.members[i])
}

func (s Set) Hash() uint64 {
	return s.hash
}

func (s Set) Contains(word int) bool {
	_, found := slices.BinarySearch(s.members, uint16(word))
	return found
}

// Equal compares contents; the hash only short-circuits the common case.
func (s Set) Equal(o Set) bool {
	return s.hash == o.hash && slices.Equal(s.members, o.members)
}

// Key is the canonical encoding of the set: the sorted members, two bytes
// each.
func (s Set) Key() string {
	b := make([]byte, 2*len(s.members))
	for i, m := range s.members {
		binary.LittleEndian.PutUint16(b[2*i:], m)
	}
	return string(b)
}

// Words returns the user-visible members, in lexical order.
func (s Set) Words(wordOf func(int) string) []string {
	words := make([]string, len(s.members))
	for i, m := range s.members {
		words[i] = wordOf(int(m))
	}
	return words
}
