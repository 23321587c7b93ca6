// Package naming generates and parses the standardized output filenames:
// merged LUT archives, model exports and previews all follow fixed
// timestamped patterns so users (and the control panel) can identify what
// produced a file.
package naming

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const timestampLayout = "20060102_150405"

// forbidden covers the characters no supported filesystem accepts.
const forbidden = `<>:"/\|?*`

// Sanitize replaces filesystem-forbidden characters with underscores.
func Sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbidden, r) {
			return '_'
		}
		return r
	}, name)
}

// MergedFilename names a merged LUT archive from its label (the
// deduplicated contributing-mode sequence) and creation time, e.g.
// "Merged_8-Color+6-Color+BW_20260830_153000.lutz".
func MergedFilename(label string, t time.Time) string {
	return fmt.Sprintf("Merged_%s_%s.lutz", Sanitize(label), t.Format(timestampLayout))
}

// ModelFilename names a per-material model export:
// "{base}_{material}_{timestamp}.stl". An empty base becomes "untitled".
func ModelFilename(base, material string, t time.Time) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "untitled"
	}
	return fmt.Sprintf("%s_%s_%s.stl", Sanitize(base), Sanitize(material), t.Format(timestampLayout))
}

var mergedRe = regexp.MustCompile(`^Merged_(.+)_(\d{8}_\d{6})(\.[\w]+)$`)

// MergedInfo is the parsed form of a merged LUT archive name.
type MergedInfo struct {
	Label     string
	Timestamp time.Time
	Extension string
}

// ParseMerged extracts the parts of a merged archive filename. It returns
// nil for names not produced by MergedFilename instead of an error.
func ParseMerged(filename string) *MergedInfo {
	m := mergedRe.FindStringSubmatch(filename)
	if m == nil {
		return nil
	}
	ts, err := time.ParseInLocation(timestampLayout, m[2], time.Local)
	if err != nil {
		return nil
	}
	return &MergedInfo{Label: m[1], Timestamp: ts, Extension: m[3]}
}
