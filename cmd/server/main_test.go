package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbeisheim/arenachess-backend/internal/config"
	"github.com/benbeisheim/arenachess-backend/internal/service"
	"github.com/rs/zerolog"
)

func TestRoutesAreWired(t *testing.T) {
	cfg := config.Default()
	gm := service.NewGameManager(service.ManagerConfig{Logger: zerolog.Nop(), ComputerDelay: time.Hour})
	app := newApp(cfg, zerolog.Nop(), service.NewGameService(gm))

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"create", http.MethodPost, "/api/game/create", http.StatusCreated},
		{"unknown game", http.MethodGet, "/api/game/missing", http.StatusNotFound},
		{"socket without upgrade", http.MethodGet, "/ws/game/missing", http.StatusUpgradeRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("X-Player-ID", "p1")
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("got %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
