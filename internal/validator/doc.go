// Package validator compares the instruction sets of parsed instruction files
// and reports which files lack instructions the others carry, together with
// structural problems found in each file. It never touches the filesystem.
package validator
