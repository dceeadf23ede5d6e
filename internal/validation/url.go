// Package validation checks the URLs and origins that arrive through
// configuration.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// URLError reports why a configured URL was rejected.
type URLError struct {
	Field   string
	Message string
	URL     string
}

func (e URLError) Error() string {
	return fmt.Sprintf("%s: %s (url: %s)", e.Field, e.Message, e.URL)
}

// ValidateURL requires an absolute URL with a host. schemes restricts the
// scheme and defaults to http and https. An empty string is accepted.
func ValidateURL(raw, field string, schemes ...string) error {
	if raw == "" {
		return nil
	}
	if len(schemes) == 0 {
		schemes = []string{"http", "https"}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return URLError{Field: field, Message: "invalid URL format", URL: raw}
	}
	if u.Scheme == "" {
		return URLError{Field: field, Message: "URL must include a scheme (http:// or https://)", URL: raw}
	}
	if u.Host == "" {
		return URLError{Field: field, Message: "URL must include a host", URL: raw}
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) {
			return nil
		}
	}
	return URLError{Field: field, Message: "URL scheme must be " + strings.Join(schemes, " or "), URL: raw}
}

// ValidateOrigin accepts a browser origin: scheme and host, no path, query
// or fragment. "*" is accepted as the wildcard origin.
func ValidateOrigin(raw, field string) error {
	if raw == "*" {
		return nil
	}
	if err := ValidateURL(raw, field); err != nil {
		return err
	}
	u, _ := url.Parse(raw)
	switch {
	case u.Path != "" && u.Path != "/":
		return URLError{Field: field, Message: "origin must not contain a path", URL: raw}
	case u.RawQuery != "":
		return URLError{Field: field, Message: "origin must not contain query parameters", URL: raw}
	case u.Fragment != "":
		return URLError{Field: field, Message: "origin must not contain a fragment", URL: raw}
	}
	return nil
}

// ValidateOrigins stops at the first invalid entry.
func ValidateOrigins(origins []string, field string) error {
	for _, o := range origins {
		if err := ValidateOrigin(o, field); err != nil {
			return err
		}
	}
	return nil
}
