package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/formflowhq/formflow/internal/api"
	"github.com/formflowhq/formflow/internal/middleware"
	"github.com/formflowhq/formflow/internal/services"
	"github.com/formflowhq/formflow/internal/utils"
)

func main() {
	addr := utils.SafeEnv("FORMFLOW_ADDR", ":8080")
	commit := os.Getenv("FORMFLOW_COMMIT")
	buildTime := os.Getenv("FORMFLOW_BUILD_TIME")

	store, closeStore, err := openStore()
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer closeStore()

	cfg := api.Config{
		DraftRetention:   utils.EnvDuration("FORMFLOW_DRAFT_RETENTION", services.DefaultDraftRetention),
		VersionRetention: utils.EnvInt("FORMFLOW_VERSION_RETENTION", services.DefaultVersionRetention),
	}

	mux := http.NewServeMux()
	api.NewRouter(store, cfg).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "FormFlow API",
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	// Static frontend bundle, when present.
	if staticDir := os.Getenv("FORMFLOW_STATIC_DIR"); staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	handler := middleware.NoStore(middleware.SecureHeaders(middleware.CORS(middleware.WithAuth(mux))))

	log.Printf("formflow server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
