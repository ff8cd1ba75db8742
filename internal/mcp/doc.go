// Package mcp implements the Model Context Protocol server for secrules
// using the mcp-go library.
//
// The server exposes the rule corpus to AI assistants three ways: read-only
// tools (list_rules, get_rule), one resource per writeup plus a corpus
// index, and prompts that package writeups into instructions. Every request
// routes through a single dispatch.Registry lookup table; mcp-go owns
// transport framing and catalog listing, the registry owns which handler
// runs. The optional demo toolset registers through the same table.
//
// Communication runs over stdio using JSON-RPC 2.0 by default, so nothing
// here may write to stdout; all logging goes through the stderr server
// logger. A streamable HTTP transport is available for network serving.
package mcp
