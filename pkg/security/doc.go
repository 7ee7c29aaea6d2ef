/*
Package security groups the transport protections of the SSE server.

Subpackage auth checks API keys and names the calling client. Subpackage tls
serves HTTPS with certificates reloaded from disk.
*/
package security
