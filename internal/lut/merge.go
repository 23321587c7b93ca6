package lut

import (
	"fmt"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/chromastack/printmesh/internal/diag"
)

// MergedSlot is one entry of the canonical 8-slot table: which source, if
// any, calibrates the material at this canonical id.
type MergedSlot struct {
	// Populated reports whether any source contributed this material.
	// Unpopulated slots stay undefined; they are flagged to the caller
	// and never zero-filled.
	Populated bool `json:"populated"`

	// Source is the label of the LUT whose calibration owns this slot.
	// With multiple contributors the last source in merge order wins.
	Source string `json:"source,omitempty"`

	// Mode of the owning source.
	Mode Mode `json:"mode,omitempty"`

	// Color is the owning source's representative calibrated color for
	// this material: its pure five-layer stack if the source printed
	// one, otherwise the first sample showing the material at the
	// viewing surface.
	Color RGB `json:"color"`
}

// MergeStats summarizes what a merge did to the combined sample set.
type MergeStats struct {
	TotalBefore    int `json:"total_before"`
	TotalAfter     int `json:"total_after"`
	ExactDupes     int `json:"exact_dupes"`
	SimilarRemoved int `json:"similar_removed"`
}

// MergedLUT is the unified table produced by merging several calibration
// LUTs. It always addresses the full canonical 8-slot space regardless of
// how many sources or modes contributed, and is immutable once built.
type MergedLUT struct {
	// Slots records per-canonical-id provenance.
	Slots [NumCanonical]MergedSlot `json:"slots"`

	// Created is the merge timestamp used for the archive filename.
	Created time.Time `json:"created"`

	// Stats describes the sample-level outcome.
	Stats MergeStats `json:"stats"`

	label   string
	samples []Sample
}

// Label returns the merge label derived from the deduplicated,
// first-occurrence-ordered contributing modes, e.g. "8-Color+6-Color+BW".
func (m *MergedLUT) Label() string { return m.label }

// Samples implements Table: the combined sample list in merge order.
func (m *MergedLUT) Samples() []Sample { return m.samples }

// Unpopulated lists the canonical ids no source calibrated.
func (m *MergedLUT) Unpopulated() []MaterialID {
	var ids []MaterialID
	for i, s := range m.Slots {
		if !s.Populated {
			ids = append(ids, MaterialID(i))
		}
	}
	return ids
}

// MergeOptions configures a merge request.
type MergeOptions struct {
	// DedupThreshold drops a sample whose CIEDE2000 distance to an
	// already-kept sample is below this value. Zero keeps every color
	// and only collapses exact RGB duplicates.
	DedupThreshold float64

	// Timestamp overrides the merge creation time; the zero value means
	// time.Now(). Tests use this for reproducible archive names.
	Timestamp time.Time
}

// Merge combines several loaded LUTs into one canonical 8-slot table.
//
// Sources are processed in input order and order must be preserved by the
// caller for reproducibility: when two sources populate the same canonical
// id, the later one overwrites the earlier (deterministic last-write-wins)
// and a non-fatal merge-conflict warning is recorded. Samples keep their
// canonical stacks from load time; exact RGB duplicates also resolve
// last-write-wins. Canonical slots left unpopulated by every source are
// flagged in the warnings.
//
// Merging the same ordered source list twice yields identical results.
func Merge(sources []*CalibrationLUT, opts MergeOptions) (*MergedLUT, []diag.Warning, error) {
	if len(sources) == 0 {
		return nil, nil, fmt.Errorf("merge: no source LUTs")
	}

	created := opts.Timestamp
	if created.IsZero() {
		created = time.Now()
	}
	m := &MergedLUT{
		label:   mergeLabel(sources),
		Created: created,
	}
	var warnings []diag.Warning

	// Slot table: provenance per canonical id, last write wins.
	for _, src := range sources {
		for id := MaterialID(0); id < NumCanonical; id++ {
			color, used := representativeColor(src, id)
			if !used {
				continue
			}
			if m.Slots[id].Populated {
				warnings = append(warnings, diag.Warningf("merge", "merge-conflict",
					"canonical slot %d (%s): %s overwrites %s",
					id, id.Name(), src.Source, m.Slots[id].Source))
			}
			m.Slots[id] = MergedSlot{
				Populated: true,
				Source:    src.Source,
				Mode:      src.Mode,
				Color:     color,
			}
		}
	}

	// Combined sample list in source order. Identical RGB values
	// collapse onto the earlier position with the later recipe.
	seen := make(map[RGB]int)
	for _, src := range sources {
		for _, s := range src.Samples() {
			m.Stats.TotalBefore++
			if at, ok := seen[s.Color]; ok {
				m.samples[at] = s
				m.Stats.ExactDupes++
				continue
			}
			seen[s.Color] = len(m.samples)
			m.samples = append(m.samples, s)
		}
	}

	if opts.DedupThreshold > 0 {
		m.samples, m.Stats.SimilarRemoved = dedupSimilar(m.samples, opts.DedupThreshold)
	}
	m.Stats.TotalAfter = len(m.samples)

	for _, id := range m.Unpopulated() {
		warnings = append(warnings, diag.Warningf("merge", "unpopulated-slot",
			"canonical slot %d (%s) not populated by any source", id, id.Name()))
	}
	return m, warnings, nil
}

// CheckCompatibility validates a merge combination before loading any
// sample data: at least two sources, and at least one 6-Color or 8-Color
// LUT to anchor the canonical space.
func CheckCompatibility(modes []Mode) error {
	if len(modes) < 2 {
		return fmt.Errorf("merge needs at least two LUTs, have %d", len(modes))
	}
	for _, m := range modes {
		if m == Mode6Color || m == Mode8Color {
			return nil
		}
	}
	return fmt.Errorf("merge combination must include at least one 6-Color or 8-Color LUT")
}

// mergeLabel joins the contributing modes, deduplicated in first-occurrence
// order.
func mergeLabel(sources []*CalibrationLUT) string {
	var parts []string
	seen := make(map[Mode]bool)
	for _, src := range sources {
		if !seen[src.Mode] {
			seen[src.Mode] = true
			parts = append(parts, src.Mode.String())
		}
	}
	return strings.Join(parts, "+")
}

// representativeColor picks the source's calibrated color for one canonical
// id, and reports whether the source uses that id at all. Preference order:
// the pure five-layer stack, then the first sample showing the id at the
// viewing surface, then the first sample using it anywhere.
func representativeColor(src *CalibrationLUT, id MaterialID) (RGB, bool) {
	pure := Stack{id, id, id, id, id}
	var surface, anywhere *Sample
	samples := src.Samples()
	for i := range samples {
		s := &samples[i]
		if s.Stack == pure {
			return s.Color, true
		}
		if surface == nil && s.Stack[0] == id {
			surface = s
		}
		if anywhere == nil && stackUses(s.Stack, id) {
			anywhere = s
		}
	}
	if surface != nil {
		return surface.Color, true
	}
	if anywhere != nil {
		return anywhere.Color, true
	}
	return RGB{}, false
}

func stackUses(s Stack, id MaterialID) bool {
	for _, m := range s {
		if m == id {
			return true
		}
	}
	return false
}

// dedupSimilar removes samples perceptually too close to an earlier kept
// sample, using the CIEDE2000 color difference.
func dedupSimilar(samples []Sample, threshold float64) ([]Sample, int) {
	kept := make([]Sample, 0, len(samples))
	keptLab := make([]colorful.Color, 0, len(samples))
	removed := 0
	for _, s := range samples {
		c := colorful.Color{
			R: float64(s.Color.R) / 255,
			G: float64(s.Color.G) / 255,
			B: float64(s.Color.B) / 255,
		}
		similar := false
		for _, k := range keptLab {
			if c.DistanceCIEDE2000(k) < threshold {
				similar = true
				break
			}
		}
		if similar {
			removed++
			continue
		}
		kept = append(kept, s)
		keptLab = append(keptLab, c)
	}
	return kept, removed
}
