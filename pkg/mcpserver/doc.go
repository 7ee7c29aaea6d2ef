// Package mcpserver serves a tool registry over the Model Context Protocol.
//
// Every registered tool becomes an MCP tool whose input schema comes from
// schemagen. A call returns the encoded call result as text; rejected calls
// are flagged with IsError so agents treat them as correctable failures.
// The server follows the registry: when tools are replaced, the MCP tool
// list is replaced too and clients are notified.
//
// Two transports are supported: stdio, where the process is launched by the
// agent host, and sse, an HTTP server that can also carry the metrics and
// health endpoints.
//
//	srv, err := mcpserver.New(cfg.Server, registry, mcpserver.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	return srv.Serve(ctx)
package mcpserver
