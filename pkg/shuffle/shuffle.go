package shuffle

// Deterministic seeded shuffling. Identical (items, seed) inputs always yield
// identical output, so a resumed attempt can reconstruct the exact ordering a
// student already saw from nothing but the seed string. No wall clock, no
// external randomness, no map iteration.

const (
	lcgMultiplier = 1664525
	lcgIncrement  = 1013904223
)

// hashSeed folds the seed string into a 32-bit running hash (the djb2-style
// shift-add construction).
func hashSeed(seed string) uint32 {
	var h uint32
	for i := 0; i < len(seed); i++ {
		h = (h << 5) - h + uint32(seed[i])
	}
	return h
}

// Shuffle returns a new slice holding items permuted by a Fisher-Yates pass
// whose swap indices are drawn from a linear-congruential step of the seed
// hash. The input slice is never mutated. Empty and single-element inputs
// come back unchanged.
func Shuffle[T any](items []T, seed string) []T {
	out := make([]T, len(items))
	copy(out, items)
	if len(out) < 2 {
		return out
	}

	h := hashSeed(seed)
	for i := len(out) - 1; i > 0; i-- {
		h = h*lcgMultiplier + lcgIncrement
		j := int(h % uint32(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
