package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignParts returns a hex HMAC-SHA256 over the parts joined by newlines.
func SignParts(secret string, parts ...string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyParts compares sig against SignParts in constant time.
func VerifyParts(secret, sig string, parts ...string) bool {
	want := SignParts(secret, parts...)
	return hmac.Equal([]byte(want), []byte(sig))
}
