// Package httpdebug is the optional debug HTTP server named in the
// harness CLI surface: a read-only window onto a running World's
// Prometheus metrics and current gravity mesh, wired with
// gorilla/mux the way the retrieval pack's API servers route
// handlers.
package httpdebug

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MeshExporter is anything that can serialize its current gravity
// mesh, satisfied by *particlelife.World and its GPU counterparts
// without this package importing particlelife (avoiding an import
// cycle with code that may want to import httpdebug from a cmd).
type MeshExporter interface {
	ExportGravityMesh() (string, error)
}

// NewServer builds the debug router: /metrics (Prometheus) and /mesh
// (current gravity mesh JSON). It does not call ListenAndServe;
// callers run it themselves so they control shutdown.
func NewServer(world MeshExporter) *http.Server {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/mesh", meshHandler(world)).Methods("GET")
	return &http.Server{Handler: r}
}

func meshHandler(world MeshExporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := world.ExportGravityMesh()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(data))
	}
}
