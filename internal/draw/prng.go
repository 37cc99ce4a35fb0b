package draw

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// seedBytes is the size of the cryptographic draw seed. The stored form is
// its hex encoding (64 chars).
const seedBytes = 32

// GenerateSeed produces a cryptographically random draw seed, hex-encoded.
// Seeds are unpredictable before the draw and stored afterwards so the
// selection can be replayed.
func GenerateSeed() (string, error) {
	buf := make([]byte, seedBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random seed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func parseSeed(seed string) ([]byte, error) {
	raw, err := hex.DecodeString(seed)
	if err != nil {
		return nil, fmt.Errorf("seed is not valid hex: %w", err)
	}
	if len(raw) != seedBytes {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", seedBytes, len(raw))
	}
	return raw, nil
}

// lcg is the deterministic sequence behind a draw: a 64-bit linear
// congruential generator (Knuth's MMIX constants) seeded from the first
// eight bytes of the cryptographic seed. Weak on its own, but the seed is
// crypto-random and the sequence only needs to be reproducible.
//
// TODO: evaluate replacing the LCG with a seeded ChaCha8 stream for draws
// over very large pools; the modulo step below also carries a small bias
// when the pool size is not a power of two.
type lcg struct {
	state uint64
}

const (
	lcgMultiplier = 6364136223846793005
	lcgIncrement  = 1442695040888963407
)

func newLCG(seed []byte) *lcg {
	return &lcg{state: binary.BigEndian.Uint64(seed[:8])}
}

func (g *lcg) next() uint64 {
	g.state = g.state*lcgMultiplier + lcgIncrement
	return g.state
}

// intn returns a pseudo-random index in [0, n). Uses the high bits; the low
// bits of an LCG cycle with short periods.
func (g *lcg) intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int((g.next() >> 33) % uint64(n))
}
