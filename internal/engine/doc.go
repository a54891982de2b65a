// Package engine exposes the instruction synchronization operations used by
// the CLI: discovering instruction files, inferring project context,
// planning and applying an instruction update across every file, validating
// cross-file consistency and listing files.
//
// Planning is read-only. ApplyUpdate is the only operation that writes, and
// it refuses plans whose file changed after planning. Per-file failures are
// recorded on the plan or write result for that file; the remaining files
// are still processed.
package engine
