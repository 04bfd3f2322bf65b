// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with lifecycle logging and typed errors,
// OSCommandRunner runs processes through os/exec, and CommandMessageFormatter
// turns git invocations into the human-readable lines the copier logs while a
// repository moves between remotes.
package execshell
