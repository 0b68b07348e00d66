package charts

import (
	"golang.org/x/text/unicode/bidi"
)

type direction int

const (
	dirNeutral direction = iota
	dirLTR
	dirRTL
)

func runeDirection(r rune) direction {
	p, _ := bidi.LookupRune(r)
	switch p.Class() {
	case bidi.R, bidi.AL:
		return dirRTL
	case bidi.L, bidi.EN, bidi.AN:
		return dirLTR
	default:
		return dirNeutral
	}
}

// Visual reorders a logical right-to-left label for a left-to-right raster
// renderer. Latin words and numbers keep their order. Neutral characters take
// the direction of their neighbours when both agree and right-to-left otherwise.
// Strings without right-to-left characters are returned unchanged.
func Visual(s string) string {
	runes := []rune(s)
	dirs := make([]direction, len(runes))
	hasRTL := false
	for i, r := range runes {
		dirs[i] = runeDirection(r)
		if dirs[i] == dirRTL {
			hasRTL = true
		}
	}
	if !hasRTL {
		return s
	}

	for i := 0; i < len(dirs); {
		if dirs[i] != dirNeutral {
			i++
			continue
		}
		j := i
		for j < len(dirs) && dirs[j] == dirNeutral {
			j++
		}
		before, after := dirRTL, dirRTL
		if i > 0 {
			before = dirs[i-1]
		}
		if j < len(dirs) {
			after = dirs[j]
		}
		resolved := dirRTL
		if before == dirLTR && after == dirLTR {
			resolved = dirLTR
		}
		for k := i; k < j; k++ {
			dirs[k] = resolved
		}
		i = j
	}

	type run struct {
		rtl  bool
		text string
	}
	var runs []run
	start := 0
	for i := 1; i <= len(runes); i++ {
		if i == len(runes) || dirs[i] != dirs[start] {
			runs = append(runs, run{rtl: dirs[start] == dirRTL, text: string(runes[start:i])})
			start = i
		}
	}

	out := make([]rune, 0, len(runes))
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].rtl {
			out = append(out, []rune(bidi.ReverseString(runs[i].text))...)
		} else {
			out = append(out, []rune(runs[i].text)...)
		}
	}
	return string(out)
}

// VisualAll applies Visual to every label
func VisualAll(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = Visual(l)
	}
	return out
}
