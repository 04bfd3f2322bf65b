// Package workspace owns the directory tree where repository copies are staged.
//
// Every copy receives its own copy_<uuid> directory beneath a shared root. The
// manager removes individual workspaces, drops the root once it is empty, and
// implements the cleanup-all sweep used by the HTTP API and the CLI.
package workspace
