package item

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// Fingerprinting is deliberately split out as pure functions so digest
// behavior can be tested without any clipboard or storage dependency.
// SHA-1 is the persisted on-disk fingerprint format; changing it would
// invalidate every stored digest.

func sum(data []byte) string {
	h := sha1.Sum(data)
	return hex.EncodeToString(h[:])
}

// FingerprintText returns the digest of a text payload.
func FingerprintText(text string) string {
	return sum([]byte(text))
}

// FingerprintImage returns the digest of an image payload. It hashes the
// lossless encoded bytes when present; with none available it falls back
// to the "WxH" dimension string so that an image item always has a
// digest.
func FingerprintImage(png []byte, width, height int) string {
	if len(png) > 0 {
		return sum(png)
	}
	return sum(fmt.Appendf(nil, "%dx%d", width, height))
}

// FingerprintFiles returns the digest of a URI list, order preserved.
func FingerprintFiles(uris []string) string {
	return sum([]byte(strings.Join(uris, "\n")))
}
