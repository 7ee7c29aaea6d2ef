/*
Package auth provides API key authentication for the SSE transport.

Keys are configured under server.auth and checked by HTTP middleware that
tries each configured source in order:

	server:
	  auth:
	    enabled: true
	    sources:
	      - type: "header"
	        name: "Authorization"
	        scheme: "Bearer"
	      - type: "query"
	        name: "api_key"
	    keys:
	      - client: "booking-agent"
	        key_env: "BOOKING_AGENT_KEY"

The middleware stores the authenticated client name in the request context.
Tool middleware reads it with ClientFrom to apply per-client call limits and
to attribute evidence records:

	validator, err := auth.NewAPIKeyValidatorFromConfig(cfg.Server.Auth)
	if err != nil {
		return err
	}
	mw := auth.NewAPIKeyMiddleware(validator, cfg.Server.Auth.Sources, logger)
	handler = mw.Handle(handler)

Key values are never logged, only client names.
*/
package auth
