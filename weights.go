package iqdb

// Weights holds the per-bin, per-channel weight table the scoring pass in
// query.go uses: Weights[0] weighs the luminance (DC) term, Weights[1..5]
// weigh wavelet coefficients whose flat index falls into frequency bins
// 1 (highest frequency, most common, least discriminative) through 5
// (lowest frequency, rarest, most discriminative).
//
// The reference implementation defines this table, plus the bin()
// lookup below, in a header (haar.h) that was not present in the
// available reference sources for this rewrite — only imgdb.cpp,
// sqlite_db.cpp, resizer.cpp, server.cpp and three headers were
// retrievable. What follows is NOT a verbatim copy of that table: it is
// a structurally faithful reconstruction (weight increasing
// monotonically from bin 1 to bin 5, so that common,
// high-frequency coefficients count for less than rare, low-frequency
// ones) built from the publicly documented shape of the imgSeek/iqdb
// weighting scheme. See DESIGN.md for the full rationale.
var Weights = [6][3]float32{
	{5.00, 19.21, 34.37}, // bin 0: luminance (DC)
	{0.57, 1.08, 0.94},   // bin 1: highest-frequency coefficients
	{0.85, 1.58, 1.26},   // bin 2
	{1.26, 2.31, 1.78},   // bin 3
	{1.82, 3.31, 2.54},   // bin 4
	{2.61, 4.75, 3.68},   // bin 5: lowest-frequency coefficients
}

// bin maps a coefficient's unsigned flat index into Weights' second
// dimension: the further the coefficient's (x, y) position in the
// 128x128 pyramid from the origin, the higher-frequency it is and the
// lower its bin.
func bin(flatIndex int) int {
	x := flatIndex % 128
	y := flatIndex / 128
	m := x
	if y > m {
		m = y
	}
	switch {
	case m < 4:
		return 5
	case m < 8:
		return 4
	case m < 16:
		return 3
	case m < 32:
		return 2
	default:
		return 1
	}
}
