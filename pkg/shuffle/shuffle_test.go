package shuffle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffleDeterministic(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	first := Shuffle(items, "seed-A")
	second := Shuffle(items, "seed-A")

	assert.Equal(t, first, second)
}

func TestShuffleDifferentSeedsDiverge(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}

	a := Shuffle(items, "seed-A")
	b := Shuffle(items, "seed-B")

	assert.NotEqual(t, a, b)
}

func TestShuffleIsPermutation(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	out := Shuffle(items, "attempt-123")

	require.Len(t, out, len(items))
	assert.ElementsMatch(t, items, out)
}

func TestShuffleDoesNotMutateInput(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	original := []string{"a", "b", "c", "d", "e"}

	Shuffle(items, "seed")

	assert.Equal(t, original, items)
}

func TestShuffleShortInputs(t *testing.T) {
	assert.Empty(t, Shuffle([]string{}, "seed"))
	assert.Equal(t, []string{"only"}, Shuffle([]string{"only"}, "seed"))
}

func TestShuffleSeedConcatenationDecorrelates(t *testing.T) {
	// A reassigned attempt seeds with attemptID+enrollmentID so its order is
	// never identical to the original attempt's even for the same attempt id.
	items := []string{"q1", "q2", "q3", "q4", "q5", "q6", "q7", "q8"}

	original := Shuffle(items, "attempt-1")
	reassigned := Shuffle(items, "attempt-1"+"enrollment-2")

	assert.NotEqual(t, original, reassigned)
}
