package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"a.jpg", "B.JPEG", "c.png", "d.webp"} {
		assert.True(t, IsImageFile(name), name)
	}
	for _, name := range []string{"a.txt", "b", "c.zip"} {
		assert.False(t, IsImageFile(name), name)
	}
}

func TestIsImageUpload(t *testing.T) {
	assert.True(t, IsImageUpload("blob", "image/png"))
	assert.True(t, IsImageUpload("cat.jpg", "application/octet-stream"))
	assert.False(t, IsImageUpload("cat.txt", "text/plain"))
}

func TestIsZipUpload(t *testing.T) {
	assert.True(t, IsZipUpload("set.zip", ""))
	assert.True(t, IsZipUpload("blob", "application/zip"))
	assert.False(t, IsZipUpload("cat.jpg", "image/jpeg"))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "cat", BaseName("cat.jpg"))
	assert.Equal(t, "cat.v2", BaseName("dir/cat.v2.jpg"))
	assert.Equal(t, "cat", BaseName(`dir\cat.png`))
	assert.Equal(t, "noext", BaseName("noext"))
}

func TestCaptionNames(t *testing.T) {
	assert.Equal(t, []string{"cat.txt", "cat.TXT"}, CaptionNames("cat.jpg"))
	assert.Equal(t, []string{"set/cat.v2.txt", "set/cat.v2.TXT"}, CaptionNames("set/cat.v2.png"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", SanitizeFilename("a/b:c"))
	assert.Equal(t, "name", SanitizeFilename(" name. "))
	assert.Equal(t, "shot_1_.png", SanitizeFilename("shot:1?.png"))
	assert.Equal(t, "a_b", SanitizeFilename("a\nb"))
}

func TestTimestampedName(t *testing.T) {
	ts := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "images-2024-01-02T15-04-05.zip", TimestampedName("images-", "zip", ts))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "10 MiB", FormatFileSize(10<<20))
}
