// Package health serves liveness, readiness and version endpoints next to
// the metrics endpoint.
//
// Readiness runs every registered check concurrently, each under its own
// timeout. The serve command registers a "tools" check (at least one tool is
// loaded) and a "database" check (the lookup database answers a ping).
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("database", db.PingContext)
//	checker.Mount(mux, health.VersionInfo{Version: version})
package health
