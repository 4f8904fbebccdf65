package proxy

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// healthStatus reports the proxy's own liveness and the upstream gateway's
// liveness as two independent booleans. The proxy stays healthy even when
// the gateway is down; it only flags the upstream as unhealthy.
type healthStatus struct {
	Status          string `json:"status"`
	UpstreamHealthy bool   `json:"upstream_healthy"`
	UpstreamURL     string `json:"upstream_url"`
}

// HealthHandler returns the proxy's liveness endpoint, which additionally
// probes the gateway.
func HealthHandler(client GatewayClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		upstream := client.Healthy(r.Context())
		status := "healthy"
		if !upstream {
			status = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(healthStatus{
			Status:          status,
			UpstreamHealthy: upstream,
			UpstreamURL:     client.BaseURL(),
		})
	}
}

// RunHTTP starts an HTTP server exposing the MCP tools over the
// streamable-HTTP transport plus the liveness probe, blocking until the
// context is cancelled.
func RunHTTP(ctx context.Context, svc *Service, addr string) error {
	server := NewMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", HealthHandler(svc.client))
	mux.Handle("/", handler)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
