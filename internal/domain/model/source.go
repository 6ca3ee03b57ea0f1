package model

import (
	"errors"
	"net/url"
	"strings"
)

var (
	ErrEmptySourceURL   = errors.New("source URL is required")
	ErrDisallowedSource = errors.New("only YouTube URLs are allowed")
)

// defaultAllowedHosts is the built-in source allow-list.
var defaultAllowedHosts = []string{"youtube.com", "youtu.be"}

// ParseSourceURL is the single canonical allow-list check applied before
// any route dispatches work. It accepts http/https URLs whose hostname is
// an allowed host or one of its subdomains, and returns the URL unchanged.
func ParseSourceURL(raw string) (string, error) {
	return ParseSourceURLAllowing(raw, defaultAllowedHosts)
}

// ParseSourceURLAllowing validates raw against an explicit allow-list.
func ParseSourceURLAllowing(raw string, allowedHosts []string) (string, error) {
	if raw == "" {
		return "", ErrEmptySourceURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrDisallowedSource
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrDisallowedSource
	}

	host := strings.ToLower(u.Hostname())
	for _, allowed := range allowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return raw, nil
		}
	}

	return "", ErrDisallowedSource
}
