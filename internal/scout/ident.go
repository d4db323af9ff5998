// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scout

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidIdentifier marks an arXiv identifier or abstract URL that
// matches neither the modern nor the legacy form.
var ErrInvalidIdentifier = errors.New("invalid arXiv identifier")

var (
	// Modern form: YYMM.NNNNN with an optional version suffix.
	modernIDRe = regexp.MustCompile(`^(\d{4}\.\d{4,5})(?:v(\d+))?$`)

	// Legacy form: archive[.SC]/YYMMNNN with an optional version suffix
	// (e.g. "cs/0501001v1", "math.GT/0309136").
	legacyIDRe = regexp.MustCompile(`^([a-z-]+(?:\.[A-Z]{2})?/\d{7})(?:v(\d+))?$`)
)

// ParseIdentifier extracts the stable base ID and version number from an
// arXiv abstract URL or bare identifier. A missing version suffix means
// version 1. Unrecognized forms return ErrInvalidIdentifier.
func ParseIdentifier(s string) (base string, version int, err error) {
	id := strings.TrimSpace(s)
	if idx := strings.Index(id, "/abs/"); idx >= 0 {
		id = id[idx+len("/abs/"):]
	}
	if id == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}

	for _, re := range []*regexp.Regexp{modernIDRe, legacyIDRe} {
		m := re.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		version = 1
		if m[2] != "" {
			v, convErr := strconv.Atoi(m[2])
			if convErr != nil || v < 1 {
				return "", 0, fmt.Errorf("%w: bad version in %q", ErrInvalidIdentifier, s)
			}
			version = v
		}
		return m[1], version, nil
	}

	return "", 0, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
}
