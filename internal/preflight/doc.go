// Package preflight provides readiness checks for the filesystem trees and
// external tools a batch depends on.
//
// The checks run in two contexts:
//   - The batch dispatcher calls RunAll before touching any subject. If a
//     required check fails, the batch refuses to start rather than burning
//     hours of wb_command time against a broken tree.
//   - The CLI "surfbatch status" command uses the same checks to display
//     environment health.
package preflight
