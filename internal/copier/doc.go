// Package copier copies a git repository to a new remote while rewriting its history.
//
// Service.Copy clones the source into a private workspace, checks out every
// remote branch locally, rewrites author and committer identity on all commits,
// renames master to main, compacts the repository, and pushes all branches and
// tags to the destination. The workspace is removed before Copy returns.
package copier
