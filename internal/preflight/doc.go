// Package preflight provides readiness checks for the filesystem paths,
// binaries and source site that airwaves depends on.
//
// These checks run in two contexts:
//   - The workflow manager calls RunAll before claiming process jobs.
//     If a check fails the lane waits instead of failing every job in turn.
//   - The status endpoint and the CLI "airwaves status" command display
//     the individual results.
package preflight
