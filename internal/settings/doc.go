// Package settings reads and writes the per-project settings document
// (.brief.yaml). The document overrides the instruction file list, declares
// project metadata in place of detection, and tunes duplicate detection. It
// is validated against an embedded JSON schema and gated on its version.
package settings
