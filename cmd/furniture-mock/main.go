package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Clark-Hu/room-catalog/internal/logging"
)

func main() {
	var (
		port   = flag.String("port", "9099", "port to listen on")
		data   = flag.String("data", "mock-furniture.json", "path to mock data file keyed by item id")
		apiKey = flag.String("api-key", "", "require this X-API-Key value when set")
		level  = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	logger, err := logging.New("development", *level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	file, err := os.ReadFile(*data)
	if err != nil {
		logger.Fatal("read mock data", zap.Error(err))
	}

	var items map[string]json.RawMessage
	if err := json.Unmarshal(file, &items); err != nil {
		logger.Fatal("parse mock data", zap.Error(err))
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/furniture/{id}", func(w http.ResponseWriter, r *http.Request) {
		if *apiKey != "" && r.Header.Get("X-API-Key") != *apiKey {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		id := chi.URLParam(r, "id")
		item, ok := items[id]
		if !ok {
			logger.Debug("unknown furniture item", zap.String("id", id))
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(item)
	})

	addr := ":" + *port
	logger.Info("mock furniture catalog listening", zap.String("addr", addr), zap.Int("items", len(items)))
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
