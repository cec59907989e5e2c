// Package textutil provides small text helpers shared across packages:
// token-set fuzzy scoring used for title verification and sanitizing of
// catalog names used in generated report file names.
//
// TokenSetRatio lowercases both inputs, splits on non-alphanumeric runes,
// and compares the sorted intersection and differences of the two token
// sets with an insertion/deletion ratio. Scores range from 0 to 100.
package textutil
