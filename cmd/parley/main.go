// Parley validates agent tool calls field by field and tells the agent
// exactly which arguments to fix.
//
// Usage:
//
//	# Serve the tools in tools.yaml over MCP (stdio)
//	parley serve --tools tools.yaml
//
//	# Serve over HTTP server-sent events with hot reload
//	parley serve --transport sse --watch
//
//	# Check a tools file and print execution orders
//	parley lint --tools tools.yaml
//
//	# Validate one payload against a tool
//	parley check book_flight payload.json
//
//	# Print the JSON Schemas advertised to agents
//	parley schema
package main

func main() {
	Execute()
}
