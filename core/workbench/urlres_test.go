package workbench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func resolverAt(now string) URLResolver {
	t, _ := time.Parse(time.RFC3339, now)
	return URLResolver{
		AssetHost: "http://127.0.0.1:8080",
		Safety:    30 * time.Second,
		Now:       func() time.Time { return t },
	}
}

func TestResolvePassThrough(t *testing.T) {
	r := resolverAt("2026-08-31T12:00:00Z")

	assert.Equal(t, "", r.Resolve(""))
	assert.Equal(t, "data:audio/mpeg;base64,AAAA", r.Resolve("data:audio/mpeg;base64,AAAA"))
	assert.Equal(t, "https://cdn.example.com/a.mp3", r.Resolve("https://cdn.example.com/a.mp3"))
	assert.Equal(t, "/static/audio/a.mp3", r.Resolve("/static/audio/a.mp3"))
}

func TestResolveRewritesAPIPaths(t *testing.T) {
	r := resolverAt("2026-08-31T12:00:00Z")
	assert.Equal(t, "http://127.0.0.1:8080/api/assets/a.mp3", r.Resolve("/api/assets/a.mp3"))
}

func TestSignedURLExpiry(t *testing.T) {
	r := resolverAt("2026-08-31T12:00:00Z")

	// Signed at 11:00 for one hour: expires exactly at noon; with the 30s
	// safety buffer it is already treated as gone.
	expired := "https://s3.example.com/a.mp3?X-Amz-Date=20260831T110000Z&X-Amz-Expires=3600&X-Amz-Signature=x"
	assert.True(t, r.SignedURLExpired(expired))
	assert.Equal(t, "", r.Resolve(expired), "expired signed URL treated as absent")

	// Signed at 11:59 for one hour: comfortably alive.
	alive := "https://s3.example.com/a.mp3?X-Amz-Date=20260831T115900Z&X-Amz-Expires=3600&X-Amz-Signature=x"
	assert.False(t, r.SignedURLExpired(alive))
	assert.Equal(t, alive, r.Resolve(alive))

	// Expires 20s from now: inside the 30s safety buffer, treated as expired.
	fringe := "https://s3.example.com/a.mp3?X-Amz-Date=20260831T120000Z&X-Amz-Expires=20&X-Amz-Signature=x"
	assert.True(t, r.SignedURLExpired(fringe))

	// Expires 40s from now: outside the buffer, still alive.
	soon := "https://s3.example.com/a.mp3?X-Amz-Date=20260831T120000Z&X-Amz-Expires=40&X-Amz-Signature=x"
	assert.False(t, r.SignedURLExpired(soon))
}

func TestUnsignedURLsNeverExpire(t *testing.T) {
	r := resolverAt("2026-08-31T12:00:00Z")
	assert.False(t, r.SignedURLExpired("https://cdn.example.com/a.mp3"))
	assert.False(t, r.SignedURLExpired("https://cdn.example.com/a.mp3?X-Amz-Date=garbage&X-Amz-Expires=60"))
	assert.False(t, r.SignedURLExpired("://not a url"))
}
