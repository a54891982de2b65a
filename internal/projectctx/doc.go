// Package projectctx infers languages, frameworks, test tooling and package
// managers from a project tree. Detection is heuristic and best-effort: a
// tree without markers yields an empty Context, never an error.
package projectctx
