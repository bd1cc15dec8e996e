package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildKeyKeepsExplicitName(t *testing.T) {
	key := BuildKey("resumes", "candidate-42.pdf", "/tmp/whatever.pdf")
	assert.Equal(t, "resumes/candidate-42.pdf", key)
}

func TestBuildKeyGeneratesNameWithSourceExtension(t *testing.T) {
	key := BuildKey("screenshots", "", "/tmp/capture.png")
	if !strings.HasPrefix(key, "screenshots/") {
		t.Errorf("expected folder prefix, got %q", key)
	}
	if !strings.HasSuffix(key, ".png") {
		t.Errorf("expected .png extension, got %q", key)
	}
}

func TestBuildKeyNoFolder(t *testing.T) {
	key := BuildKey("", "cv.pdf", "/tmp/cv.pdf")
	assert.Equal(t, "cv.pdf", key)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/pdf", contentTypeFor("resumes/a.pdf"))
	assert.Equal(t, "image/png", contentTypeFor("screenshots/b.PNG"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("misc/raw"))
}
