package shortener

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

const invalidURLMessage = "Invalid url (Either url is empty or invalid. (Url must include either http:// or https://))"

// ValidateURL checks that rawURL is an absolute http(s) URL and returns its normalized form.
func ValidateURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", urlValidationError(invalidURLMessage)
	}

	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return "", urlValidationError(invalidURLMessage)
	}

	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Hostname() == "" {
		return "", urlValidationError(invalidURLMessage)
	}

	return NormalizeURL(rawURL)
}

// NormalizeURL normalizes a URL so equivalent spellings share one LongURL row.
// - Lowercases the scheme and host
// - Removes default ports (80 for http, 443 for https)
// - Removes trailing slashes from path (unless path is just "/")
// - Removes the fragment
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", urlValidationError(invalidURLMessage)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	host := u.Host
	if strings.HasSuffix(host, ":80") && u.Scheme == "http" {
		u.Host = strings.TrimSuffix(host, ":80")
	} else if strings.HasSuffix(host, ":443") && u.Scheme == "https" {
		u.Host = strings.TrimSuffix(host, ":443")
	}

	if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = ""
	}

	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), nil
}

// HashURL computes the hex SHA-256 of a normalized URL. It is the unique key of a LongURL.
func HashURL(normalizedURL string) string {
	h := sha256.Sum256([]byte(normalizedURL))
	return hex.EncodeToString(h[:])
}
