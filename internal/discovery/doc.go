// Package discovery locates AI assistant instruction files in a project.
// The recognized names form an explicit, overridable pattern list; patterns
// may use doublestar glob syntax such as ".cursor/rules/*.mdc".
package discovery
