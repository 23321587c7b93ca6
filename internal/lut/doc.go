// Package lut loads and merges printer calibration lookup tables (LUTs).
//
// A calibration LUT is a sampled mapping from discrete material-mix
// combinations to the colors they produce when printed. The sample count of
// a LUT uniquely determines its mode (the material-count family):
//
//	32   samples -> BW       (2 materials)
//	1024 samples -> 4-Color  (4 materials)
//	1296 samples -> 6-Color  (6 materials)
//	2738 samples -> 8-Color  (8 materials)
//
// Within the 4-Color and 6-Color families two recipe variants exist (RYBW
// and CMYW based). The recipe is detected from the LUT's identifying name
// and selects one of six fixed slot-mapping tables that translate the LUT's
// internal slot indices into the canonical 8-material space shared by every
// mode (0 White, 1 Cyan, 2 Magenta, 3 Yellow, 4 Black, 5 Red, 6 DeepBlue,
// 7 Green).
//
// # Lifecycle
//
// CalibrationLUT values are built once at load time and are immutable
// afterwards. MergedLUT values are built once per merge request. Both are
// safe for concurrent read access.
//
// # Error Handling
//
// Only malformed or unreadable calibration files are hard failures, and
// they abort just the load of that one file (*FormatError). Every other
// condition (missing recipe keyword, merge conflicts, unpopulated canonical
// slots, near-duplicate samples) is recovered locally and reported through
// the returned diag.Warning lists.
package lut
