/*
Package tls serves the SSE transport over HTTPS.

NewServerConfig loads the configured certificate and key and returns a
crypto/tls configuration that picks up renewed files without a restart:

	server:
	  transport: "sse"
	  tls:
	    enabled: true
	    cert_file: "/etc/parley/server.crt"
	    key_file: "/etc/parley/server.key"
	    min_version: "1.3"
	    cert_reload_interval: 5m

Expired or not-yet-valid certificates are rejected at load and reload. A
failed reload keeps serving the previous certificate.
*/
package tls
