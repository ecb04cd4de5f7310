package utils

import (
	"regexp"
	"strings"
)

// UniqueStrings returns slice without repeated entries, keeping first occurrences in order.
func UniqueStrings(slice []string) []string {
	keys := make(map[string]bool)
	uniqueSlice := []string{}
	for _, entry := range slice {
		if _, value := keys[entry]; !value {
			keys[entry] = true
			uniqueSlice = append(uniqueSlice, entry)
		}
	}
	return uniqueSlice
}

var spaceRegex = regexp.MustCompile(`\s+`)

// CollapseSpaces trims s and squeezes every whitespace run to one space.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
}

// AbsoluteURL resolves a scheme-relative or root-relative href against base,
// which must be an origin like "https://www.example.jp".
func AbsoluteURL(base, href string) string {
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return strings.TrimSuffix(base, "/") + href
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href
	}
	return strings.TrimSuffix(base, "/") + "/" + href
}

// LastPathSegment returns the last non-empty path segment of a URL,
// ignoring any query string.
func LastPathSegment(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimRight(u, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}
