package shortener

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// CodeLength is the length of generated short codes.
const CodeLength = 7

// 62 characters: 0-9, a-z, A-Z
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	ErrInvalidURL = errors.New("invalid_url")

	codePattern = regexp.MustCompile(`^[A-Za-z0-9]{1,64}$`)
	// RFC 3986 scheme at the very start; "://" later in a query does not count.
	schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z\d+\-.]*://`)

	// Paths served by the application itself can never be short codes.
	reservedCodes = map[string]struct{}{
		"api":         {},
		"_next":       {},
		"favicon.ico": {},
		"robots.txt":  {},
		"sitemap.xml": {},
		"login":       {},
		"signup":      {},
		"logout":      {},
		"dashboard":   {},
		"auth":        {},
		"docs":        {},
		"metrics":     {},
		"monitor":     {},
		"healthz":     {},
		"q":           {},
	}
)

// GenerateSecureSlug creates a cryptographically secure random Base62 slug.
func GenerateSecureSlug(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid slug length: %d", length)
	}

	// Rejection sampling to avoid modulo bias.
	// 248 is the largest multiple of 62 below 256.
	const maxRandomByte = 248

	slug := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}

		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			slug[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == length {
				break
			}
		}
	}

	return string(slug), nil
}

// GenerateCode returns a random short code that is not reserved.
func GenerateCode() (string, error) {
	for {
		code, err := GenerateSecureSlug(CodeLength)
		if err != nil {
			return "", err
		}
		if !IsReserved(code) {
			return code, nil
		}
	}
}

// IsReserved reports whether the code collides with an application path (case-insensitive).
func IsReserved(code string) bool {
	_, ok := reservedCodes[strings.ToLower(code)]
	return ok
}

// IsValidCode reports whether a path segment can be a short code
func IsValidCode(code string) bool {
	return codePattern.MatchString(code) && !IsReserved(code)
}

// NormalizeURL trims the input, defaults to https when no scheme is given and
// accepts only absolute http(s) URLs with a host.
func NormalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidURL
	}

	if !schemePattern.MatchString(trimmed) {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", ErrInvalidURL
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", ErrInvalidURL
	}
	if u.Hostname() == "" || strings.ContainsAny(u.Host, " \t") {
		return "", ErrInvalidURL
	}
	u.Scheme = scheme

	return u.String(), nil
}
