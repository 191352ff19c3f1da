package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "audio_overview.wav", SanitizeFilename("audio_overview.wav"))
	assert.Equal(t, "a_b_c", SanitizeFilename(`a/b\c`))
	assert.Equal(t, "episode_ 1_", SanitizeFilename("episode: 1?"))
	assert.Equal(t, "download", SanitizeFilename("   "))
}

func TestHashContentStable(t *testing.T) {
	a := HashContent("some content")
	b := HashContent("some content")
	c := HashContent("other content")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
