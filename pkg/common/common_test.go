package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "drum-kit", Slugify("Drum Kit"))
	assert.Equal(t, "soundsmith-audio", Slugify("  Soundsmith Audio  "))
	assert.Equal(t, "50-off-presets", Slugify("50% Off Presets!"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestUUIDint64(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		id := UUIDint64()
		assert.Positive(t, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestSha256HashWithSalt(t *testing.T) {
	a := Sha256HashWithSalt("secret", "salt1")
	b := Sha256HashWithSalt("secret", "salt2")
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Sha256HashWithSalt("secret", "salt1"))
}
