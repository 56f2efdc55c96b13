package zobrist

import (
	"lukechampine.com/frand"
)

const bignum = 1<<63 - 2

// Zobrist hashes a set of words: every word gets a random 64-bit key and a
// set's hash is the XOR of its members' keys. Adding or removing a word is
// a single XOR, so partitions can hash their groups while building them.
// https://en.wikipedia.org/wiki/Zobrist_hashing
type Zobrist struct {
	wordTable []uint64
}

func (z *Zobrist) Initialize(numWords int) {
	z.wordTable = make([]uint64, numWords)
	for i := range z.wordTable {
		z.wordTable[i] = frand.Uint64n(bignum) + 1
	}
}

// NumWords is the number of words this table was initialized for.
func (z *Zobrist) NumWords() int {
	return len(z.wordTable)
}

// Key is the hash contribution of a single word.
func (z *Zobrist) Key(word uint16) uint64 {
	return z.wordTable[word]
}

func (z *Zobrist) Hash(words []uint16) uint64 {
	key := uint64(0)
	for _, w := range words {
		key ^= z.wordTable[w]
	}
	return key
}

// Toggle adds the word to the hash, or removes it if it is already there.
func (z *Zobrist) Toggle(key uint64, word uint16) uint64 {
	return key ^ z.wordTable[word]
}
