// Package cli constructs the repo-copier command-line interface. It wires the
// Cobra command hierarchy to the layered configuration loader and the zap
// logger, and exposes the serve, copy, cleanup and config commands.
package cli
