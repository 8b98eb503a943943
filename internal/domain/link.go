package domain

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidLink is returned when a portable link cannot be decoded.
var ErrInvalidLink = errors.New("invalid portable link")

// EncodeLink serializes a project into its portable form: JSON, then standard
// base64, then URL query escaping.
func EncodeLink(p Project) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode project: %w", err)
	}
	return url.QueryEscape(base64.StdEncoding.EncodeToString(data)), nil
}

// DecodeLink restores a project from its portable form. Input that was
// already unescaped by an HTTP router is accepted as well.
func DecodeLink(s string) (Project, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Project{}, fmt.Errorf("%w: empty", ErrInvalidLink)
	}
	unescaped, err := url.QueryUnescape(s)
	if err != nil {
		return Project{}, fmt.Errorf("%w: %w", ErrInvalidLink, err)
	}
	data, err := base64.StdEncoding.DecodeString(unescaped)
	if err != nil {
		// A router may already have unescaped the value once, turning '+' into ' '.
		data, err = base64.StdEncoding.DecodeString(strings.ReplaceAll(s, " ", "+"))
		if err != nil {
			return Project{}, fmt.Errorf("%w: %w", ErrInvalidLink, err)
		}
	}
	p, err := ParseProject(data)
	if err != nil {
		return Project{}, fmt.Errorf("%w: %w", ErrInvalidLink, err)
	}
	return p, nil
}

// ShareURL returns baseURL with the encoded project in its data query
// parameter.
func ShareURL(baseURL string, p Project) (string, error) {
	encoded, err := EncodeLink(p)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(baseURL, "/") + "/?data=" + encoded, nil
}

// LinkFromShareURL extracts the encoded project from a share URL, or returns
// s unchanged when it is not a URL with a data parameter.
func LinkFromShareURL(s string) string {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.RawQuery == "" {
		return s
	}
	for _, kv := range strings.Split(u.RawQuery, "&") {
		if v, ok := strings.CutPrefix(kv, "data="); ok {
			return v
		}
	}
	return s
}
