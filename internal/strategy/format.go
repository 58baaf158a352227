package strategy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rdelaney/powerplay/internal/model"
)

// FormatNumbers renders the numbers portion of a pick set: zero-padded
// two-digit whites space-joined, followed by the zero-padded red.
//
//	"03 12 15 56 62 R:08"
func FormatNumbers(p model.PickSet) string {
	parts := make([]string, 0, len(p.Whites)+1)
	for _, w := range p.Whites {
		parts = append(parts, fmt.Sprintf("%02d", w))
	}
	parts = append(parts, fmt.Sprintf("R:%02d", p.Red))
	return strings.Join(parts, " ")
}

// Format renders a full human-readable line for a pick set, prefixed by the
// strategy name and description.
func Format(p model.PickSet) string {
	return fmt.Sprintf("%s (%s): %s", p.Strategy, p.Description, FormatNumbers(p))
}

// ParseNumbers parses a numbers string produced by FormatNumbers back into
// the white picks and red pick.
func ParseNumbers(s string) (whites []int, red int, err error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, 0, fmt.Errorf("empty picks string")
	}

	last := fields[len(fields)-1]
	if !strings.HasPrefix(last, "R:") {
		return nil, 0, fmt.Errorf("missing red pick in %q", s)
	}
	red, err = strconv.Atoi(strings.TrimPrefix(last, "R:"))
	if err != nil {
		return nil, 0, fmt.Errorf("parse red pick: %w", err)
	}

	for _, f := range fields[:len(fields)-1] {
		w, err := strconv.Atoi(f)
		if err != nil {
			return nil, 0, fmt.Errorf("parse white pick %q: %w", f, err)
		}
		whites = append(whites, w)
	}
	return whites, red, nil
}
