package composer

import "hash/fnv"

// Seed hashes key with 32-bit FNV-1a.
func Seed(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32()
}

// Rand is a deterministic stream of floats in [0, 1).
type Rand func() float64

// NewRand returns a mulberry32 generator seeded with seed.
func NewRand(seed uint32) Rand {
	state := seed
	return func() float64 {
		state += 0x6d2b79f5
		t := state
		t = (t ^ (t >> 15)) * (t | 1)
		t ^= t + (t^(t>>7))*(t|61)
		return float64(t^(t>>14)) / 4294967296
	}
}

// Pick draws one variant from pool using the first value of the stream seeded
// by key. A single-entry pool is returned without drawing.
func Pick(pool []string, key string) string {
	switch len(pool) {
	case 0:
		return ""
	case 1:
		return pool[0]
	}
	idx := int(NewRand(Seed(key))() * float64(len(pool)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(pool) {
		idx = len(pool) - 1
	}
	return pool[idx]
}
