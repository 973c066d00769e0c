// Package httpserver provides the HTTP server shared by the registry, relays and users.
//
// The httpserver package implements a base HTTP server with standard health endpoints,
// graceful shutdown capabilities, Prometheus metrics, and flexible routing. Each onionnet
// process mounts its own routes on it through RouteRegistrar.
//
// # Key Components
//
//   - BaseServer: Core HTTP server with health checks, metrics, and lifecycle management
//   - RouteRegistrar: Interface for components to register their routes with the server
//
// # Server Lifecycle
//
// The BaseServer implements a complete server lifecycle:
//
//  1. Initialization: Configure server with HTTP settings and route registrars
//  2. Startup: Run HTTP and metrics servers in background goroutines
//  3. Operation: Handle requests with proper logging and monitoring
//  4. Readiness Control: Support drain/undrain operations for load balancers
//  5. Graceful Shutdown: Wait for in-flight requests to complete
//
// # Health and Diagnostics
//
// All servers built with BaseServer automatically include:
//
//   - Liveness Check: Simple endpoint to verify server is running (/livez)
//   - Readiness Check: Endpoint indicating if server is ready to accept requests (/readyz)
//   - Drain Control: Endpoints to prepare for graceful shutdown (/drain, /undrain)
//   - Metrics: Optional Prometheus endpoint on a separate listener (/metrics)
//   - Profiling: Optional pprof debugging endpoints when enabled
//   - Request logging: every request is logged through go-utils httplogger
//
// # Usage Example
//
//	relay, _ := services.NewRelay(relayConfig)
//	srv, err := httpserver.New(&httpserver.HTTPServerConfig{
//	    ListenAddr: ":4001",
//	    Log:        log,
//	}, relay)
//	if err != nil {
//	    return err
//	}
//	srv.RunInBackground()
//	defer srv.Shutdown()
//
// Run is the blocking form used when several servers share one errgroup.
package httpserver
