// File: utils/constants.go
package utils

import (
	"strings"
	"unicode/utf8"
)

// DispatchKeyPrefix is the prefix for Redis keys guarding alert dispatch.
const DispatchKeyPrefix = "alerts:dispatch:"

// DefaultMinTokenLength is the shortest FCM registration token treated as plausible.
const DefaultMinTokenLength = 100

// NormalizeToken is the stored and sent form of a delivery token.
func NormalizeToken(token string) string {
	return strings.TrimSpace(token)
}

// TokenLength counts code points of the normalized token. The token cleanup
// query measures the same way ($trim + $strLenCP).
func TokenLength(token string) int {
	return utf8.RuneCountInString(NormalizeToken(token))
}

// MinTokenLength applies the default to an unset minimum.
func MinTokenLength(minLen int) int {
	if minLen <= 0 {
		return DefaultMinTokenLength
	}
	return minLen
}

// IsPlausibleToken reports whether an FCM token is long enough to be real.
func IsPlausibleToken(token string, minLen int) bool {
	return TokenLength(token) >= MinTokenLength(minLen)
}
