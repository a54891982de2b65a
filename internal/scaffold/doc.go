// Package scaffold generates starter instruction files from embedded
// templates. It powers "brief init --create", filling in what is known about
// the project so a new assistant file starts out aligned with its siblings.
package scaffold
