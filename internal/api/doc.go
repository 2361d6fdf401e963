// Package api provides the admin HTTP surface of the MODI core.
//
// It lists the modules bound on the bus, reads their cached properties and
// queues property writes through the same path façades use, so writes are
// validated and subject to the dispatch queue's backpressure policy.
//
// Routes:
//
//	GET /api/v1/health
//	GET /api/v1/kinds
//	GET /api/v1/inventory
//	GET /api/v1/modules
//	GET /api/v1/modules/{id}
//	GET /api/v1/modules/{id}/properties/{name}
//	PUT /api/v1/modules/{id}/properties/{name}   {"values": [...]}
//	GET /api/v1/modules/{id}/properties/{name}/history?since=1h   (composites: per component)
//	GET /metrics                                 (Prometheus exposition)
//
// Requests are logged and counted per route pattern in modi_api_*.
//
// The server follows the same lifecycle as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
