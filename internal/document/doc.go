// Package document parses instruction files into ordered, titled sections and
// serializes them back. Parsing is lossless: every byte of the input lives in
// exactly one section, so a file that was not mutated serializes to the exact
// text it was parsed from.
package document
