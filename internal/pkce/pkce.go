// Package pkce implements RFC 7636 Proof Key for Code Exchange: verifier
// generation, S256 challenge derivation, and constant-time verification.
// Only the S256 method is accepted; "plain" is rejected by policy.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// unreservedChars is the 66-character RFC 3986 unreserved-URI set PKCE
// verifiers are drawn from.
const unreservedChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

const (
	minVerifierLength = 43
	maxVerifierLength = 128
)

// MethodS256 is the only code_challenge_method this server accepts.
const MethodS256 = "S256"

// GenerateCodeVerifier returns a cryptographically random verifier of the
// given length, drawn uniformly from the unreserved-URI character set.
// length must fall within RFC 7636's 43-128 bound.
func GenerateCodeVerifier(length int) (string, error) {
	if length < minVerifierLength || length > maxVerifierLength {
		return "", fmt.Errorf("pkce: verifier length must be in [%d, %d], got %d", minVerifierLength, maxVerifierLength, length)
	}

	// Bytes at or above the largest multiple of 66 that fits in a byte are
	// discarded, so every character of the set is equally likely.
	limit := 256 - 256%len(unreservedChars)
	out := make([]byte, 0, length)
	var b [1]byte
	for len(out) < length {
		if _, err := rand.Read(b[:]); err != nil {
			return "", fmt.Errorf("pkce: reading random bytes: %w", err)
		}
		if int(b[0]) < limit {
			out = append(out, unreservedChars[int(b[0])%len(unreservedChars)])
		}
	}
	return string(out), nil
}

// GenerateCodeChallenge derives the S256 code_challenge for verifier:
// base64url(SHA-256(ASCII(verifier))), no padding.
func GenerateCodeChallenge(verifier string) (string, error) {
	if err := validateVerifier(verifier); err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

// VerifyCodeChallenge reports whether verifier, run through method, equals
// challenge. Only MethodS256 is accepted; any other method (including
// "plain") is rejected as an error, per MCP policy. Comparison is
// constant-time over equal-length buffers.
func VerifyCodeChallenge(verifier, challenge, method string) (bool, error) {
	if method != MethodS256 {
		return false, fmt.Errorf("pkce: unsupported code_challenge_method %q, only %q is accepted", method, MethodS256)
	}
	computed, err := GenerateCodeChallenge(verifier)
	if err != nil {
		return false, err
	}
	if len(computed) != len(challenge) {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1, nil
}

func validateVerifier(verifier string) error {
	if len(verifier) < minVerifierLength || len(verifier) > maxVerifierLength {
		return fmt.Errorf("pkce: verifier length must be in [%d, %d], got %d", minVerifierLength, maxVerifierLength, len(verifier))
	}
	for _, r := range verifier {
		if r > 127 || !isUnreserved(byte(r)) {
			return fmt.Errorf("pkce: verifier contains a character outside the unreserved-URI set")
		}
	}
	return nil
}

func isUnreserved(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '.' || b == '_' || b == '~':
		return true
	default:
		return false
	}
}
