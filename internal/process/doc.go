// Package process supervises locally spawned commands.
//
// Every command runs in its own process group so the whole tree it spawns
// can be signaled as a unit, not just the leader. Combined output is drained
// by a dedicated worker that never blocks longer than a short poll, appended
// to a bounded tail buffer, and forwarded line by line to a caller-supplied
// sink.
//
// Full process-group termination relies on unix job-control semantics. On
// Windows there is no equivalent signal primitive, so termination falls back
// to recursively enumerating the descendant tree via KillTree; grandchildren
// spawned between enumeration and kill can be missed there.
package process
