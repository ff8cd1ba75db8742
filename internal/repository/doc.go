// Package repository resolves where the rule corpus comes from.
//
// A Source turns a configured upstream (a git URL or a local directory)
// into a local filesystem path holding writeups, reporting what it did in
// a SyncInfo. GitSource clones or pulls with go-git, trying public access
// first and falling back to a GitHub Personal Access Token from the OS
// keyring. Sync is the full refresh flow: prepare the upstream, verify the
// writeups, and materialize them into the storage directory the server and
// CLI read from.
package repository
