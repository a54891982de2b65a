// Package similarity scores how alike two normalized instruction strings
// are. Scorer is the narrow seam between duplicate detection and the
// concrete algorithm.
package similarity
