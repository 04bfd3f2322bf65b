// Package gitrepo contains helpers for describing git remotes safely.
//
// RedactRemoteURL strips credentials before a remote reaches logs or the copy
// journal, and RepositoryName derives a short display name from any remote form
// git accepts (scheme URLs, scp-style addresses, and local paths).
package gitrepo
