package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	err := Newf("decode failed: %s", "bad header").
		Component("myaudio").
		Category(CategoryAudioDecode).
		Context("path", "/tmp/x.wav").
		Build()

	assert.Equal(t, "decode failed: bad header", err.Error())
	assert.Equal(t, "myaudio", err.Component)
	assert.Equal(t, CategoryAudioDecode, err.GetCategory())
	assert.Equal(t, "/tmp/x.wav", err.GetContext()["path"])
	assert.False(t, err.Timestamp.IsZero())
}

func TestBuildDefaultsToGeneric(t *testing.T) {
	err := Newf("something odd").Build()
	assert.Equal(t, CategoryGeneric, err.GetCategory())
}

func TestUnwrap(t *testing.T) {
	base := fmt.Errorf("root cause")
	err := New(fmt.Errorf("wrapped: %w", base)).
		Category(CategoryNetwork).
		Build()

	assert.True(t, Is(err, base))

	var ee *EnhancedError
	require.True(t, As(err, &ee))
	assert.Equal(t, CategoryNetwork, ee.Category)
}

func TestCategoryOf(t *testing.T) {
	enhanced := Newf("nope").Category(CategoryValidation).Build()
	assert.Equal(t, CategoryValidation, CategoryOf(enhanced))

	wrapped := fmt.Errorf("outer: %w", enhanced)
	assert.Equal(t, CategoryValidation, CategoryOf(wrapped))

	assert.Equal(t, CategoryGeneric, CategoryOf(fmt.Errorf("plain")))
}

func TestHasCategory(t *testing.T) {
	err := Newf("nope").Category(CategoryDownload).Build()
	assert.True(t, HasCategory(err, CategoryDownload))
	assert.False(t, HasCategory(err, CategoryValidation))
	assert.False(t, HasCategory(fmt.Errorf("plain"), CategoryDownload))
}

func TestContextIsCopied(t *testing.T) {
	err := Newf("nope").Context("k", "v").Build()

	ctx := err.GetContext()
	ctx["k"] = "mutated"
	assert.Equal(t, "v", err.GetContext()["k"])
}

func TestTiming(t *testing.T) {
	err := Newf("slow").Timing("download", 1500*time.Millisecond).Build()
	ctx := err.GetContext()
	assert.Equal(t, "download", ctx["operation"])
	assert.Equal(t, int64(1500), ctx["duration_ms"])
}
