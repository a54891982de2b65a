// Package watch reports changes to instruction files and the project
// settings document. Events are debounced so that an editor's burst of
// writes yields a single notification.
package watch
