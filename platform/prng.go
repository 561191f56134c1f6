package platform

import (
	"crypto/rand"
	"encoding/binary"
)

// PRNG is a per-goroutine xorshift32 stream. Correctness of victim
// selection never depends on the quality of this generator — only on it
// being cheap and reasonably well distributed — so a non-cryptographic
// generator seeded once from OS entropy is the right tool. Giving each
// worker its own PRNG also avoids false sharing on a shared generator's
// state.
type PRNG struct {
	state uint32
}

// New returns a PRNG seeded from the OS entropy source. Each worker
// goroutine owns exactly one, created once before it enters its loop.
func New() *PRNG {
	var seed [4]byte
	if _, err := rand.Read(seed[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable on any real
		// platform; fall back to a fixed non-zero seed rather than a
		// panic, since victim-selection distribution quality — not
		// correctness — is all that's at stake.
		return &PRNG{state: 0x9e3779b9}
	}
	state := binary.LittleEndian.Uint32(seed[:])
	if state == 0 {
		state = 0x9e3779b9
	}
	return &PRNG{state: state}
}

// Uint32 returns the next value in the stream.
func (p *PRNG) Uint32() uint32 {
	x := p.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	p.state = x
	return x
}
