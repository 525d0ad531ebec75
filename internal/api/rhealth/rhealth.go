//nolint:revive // exported
package rhealth

import (
	"database/sql"
	"net/http"

	"opsboard/server/internal/api"

	"github.com/goccy/go-json"
)

const PathPrefix = "/health.v1.HealthService/"

type HealthServiceRPC struct {
	db *sql.DB
}

func New(db *sql.DB) *HealthServiceRPC {
	return &HealthServiceRPC{db: db}
}

func CreateService(srv *HealthServiceRPC) (*api.Service, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+PathPrefix+"HealthCheck", srv.HealthCheck)
	return &api.Service{Path: PathPrefix, Handler: mux}, nil
}

type healthResponse struct {
	Status string `json:"status"`
}

func (c *HealthServiceRPC) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if c.db != nil {
		if err := c.db.PingContext(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(healthResponse{Status: "unhealthy"})
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok"})
}
