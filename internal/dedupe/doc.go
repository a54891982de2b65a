// Package dedupe decides whether a candidate instruction is already present
// in a file, either exactly (after normalization) or approximately (scored by
// a similarity.Scorer against a threshold).
package dedupe
