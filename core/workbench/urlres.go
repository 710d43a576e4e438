package workbench

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const amzDateLayout = "20060102T150405Z"

// URLResolver applies the asset-reference convention: absolute and embedded
// URLs pass through, relative API paths are rewritten onto the configured
// host, and signed object-storage URLs that have (almost) expired are
// treated as absent so the UI can show "needs regeneration" instead of a
// broken-media state.
type URLResolver struct {
	AssetHost string
	Safety    time.Duration
	Now       func() time.Time // nil means time.Now
}

func (r URLResolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Resolve rewrites one asset reference. An empty result means the asset
// should be treated as absent.
func (r URLResolver) Resolve(raw string) string {
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "data:"), strings.HasPrefix(raw, "blob:"):
		return raw
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		if r.SignedURLExpired(raw) {
			return ""
		}
		return raw
	case strings.HasPrefix(raw, "/api/"):
		return strings.TrimSuffix(r.AssetHost, "/") + raw
	default:
		return raw
	}
}

// SignedURLExpired reports whether a URL carries a recognizable signed
// date+expiry pair that has passed, judged against wall-clock time with the
// safety buffer. URLs without the signature parameters are never expired.
func (r URLResolver) SignedURLExpired(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	q := u.Query()
	dateStr := q.Get("X-Amz-Date")
	expiresStr := q.Get("X-Amz-Expires")
	if dateStr == "" || expiresStr == "" {
		return false
	}

	signedAt, err := time.Parse(amzDateLayout, dateStr)
	if err != nil {
		return false
	}
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return false
	}

	expiry := signedAt.Add(time.Duration(expires) * time.Second)
	return !r.now().Add(r.Safety).Before(expiry)
}
