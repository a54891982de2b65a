// Package cli implements the brief command-line interface using Cobra. Each
// command lives in its own file and delegates to the engine package.
package cli
