// Package inserter places a new instruction in the section of a parsed file
// where it belongs. The target is chosen by affinity: an explicit hint or
// keywords found in the instruction, biased by the project context. When no
// section fits, a single fallback section collects the instruction.
package inserter
