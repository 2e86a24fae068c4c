package kinetics

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Descriptor is one entry of a transition attribute such as
// "width 250ms ease-out 50ms".
type Descriptor struct {
	Property string
	Duration time.Duration
	Delay    time.Duration
	Easing   Easing
	// EasingName is kept for diagnostics and dumps.
	EasingName string
}

var timePattern = regexp.MustCompile(`^(\d+(\.\d+)?)(s|ms)$`)

// ParseTime reads "1.5s" or "200ms".
func ParseTime(text string) (time.Duration, bool) {
	m := timePattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	if m[3] == "s" {
		v *= 1000
	}
	return time.Duration(v * float64(time.Millisecond)), true
}

// ParseDescriptors splits a comma-separated transition list. Malformed
// entries are dropped.
func ParseDescriptors(text string) map[string]Descriptor {
	out := make(map[string]Descriptor)
	for _, entry := range splitTopLevel(text) {
		d, ok := parseDescriptor(entry)
		if ok {
			out[d.Property] = d
		}
	}
	return out
}

func parseDescriptor(entry string) (Descriptor, bool) {
	parts := fieldsTopLevel(entry)
	if len(parts) < 2 {
		return Descriptor{}, false
	}
	duration, ok := ParseTime(parts[1])
	if !ok {
		return Descriptor{}, false
	}
	d := Descriptor{
		Property:   parts[0],
		Duration:   duration,
		Easing:     Linear,
		EasingName: "linear",
	}
	switch len(parts) {
	case 2:
	case 3:
		if delay, ok := ParseTime(parts[2]); ok {
			d.Delay = delay
		} else {
			d.Easing = ParseEasing(parts[2])
			d.EasingName = parts[2]
		}
	default:
		d.Easing = ParseEasing(parts[2])
		d.EasingName = parts[2]
		if delay, ok := ParseTime(parts[3]); ok {
			d.Delay = delay
		}
	}
	return d, true
}

// splitTopLevel splits on commas outside parentheses so cubic-bezier
// arguments stay together.
func splitTopLevel(text string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range text {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, text[start:i])
				start = i + 1
			}
		}
	}
	return append(out, text[start:])
}

// fieldsTopLevel splits on whitespace outside parentheses.
func fieldsTopLevel(text string) []string {
	var out []string
	var cur strings.Builder
	depth := 0
	for _, r := range text {
		switch {
		case r == '(':
			depth++
		case r == ')' && depth > 0:
			depth--
		case (r == ' ' || r == '\t' || r == '\n') && depth == 0:
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
