// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package osrelease parses os-release(5) formatted key/value data.
package osrelease

import "strings"

// Info is the subset of os-release fields relevant to image identification.
//
// Fields left empty are omitted from the serialized form.
type Info struct {
	Name      string `json:"name,omitempty"`
	ID        string `json:"id,omitempty"`
	VersionID string `json:"version_id,omitempty"`
}

// ParseInfo parses os-release text and derives Info from it.
//
// PRETTY_NAME is preferred over NAME for the human-oriented name.
func ParseInfo(text string) *Info {
	vars := Parse(text)

	name, ok := vars["PRETTY_NAME"]
	if !ok {
		name = vars["NAME"]
	}

	return &Info{
		Name:      name,
		ID:        vars["ID"],
		VersionID: vars["VERSION_ID"],
	}
}

// Parse splits os-release text into a key to value mapping.
//
// Blank lines and comments are skipped, values are unquoted per the
// os-release conventions. Later assignments to the same key win, matching
// shell sourcing semantics.
func Parse(text string) map[string]string {
	vars := map[string]string{}

	for _, line := range strings.SplitAfter(text, "\n") {
		line = strings.TrimSpace(line)

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		vars[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}

	return vars
}

// unquote strips single or double quotes and processes the escape sequences
// allowed inside double-quoted os-release values.
func unquote(value string) string {
	if len(value) < 2 {
		return value
	}

	switch value[0] {
	case '\'':
		if value[len(value)-1] == '\'' {
			return value[1 : len(value)-1]
		}
	case '"':
		if value[len(value)-1] == '"' {
			return unescape(value[1 : len(value)-1])
		}
	}

	return value
}

func unescape(value string) string {
	if !strings.ContainsRune(value, '\\') {
		return value
	}

	var sb strings.Builder

	sb.Grow(len(value))

	escaped := false

	for _, r := range value {
		if escaped {
			switch r {
			case '"', '\\', '$', '`':
				sb.WriteRune(r)
			default:
				sb.WriteRune('\\')
				sb.WriteRune(r)
			}

			escaped = false

			continue
		}

		if r == '\\' {
			escaped = true

			continue
		}

		sb.WriteRune(r)
	}

	if escaped {
		sb.WriteRune('\\')
	}

	return sb.String()
}
