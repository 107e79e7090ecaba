package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/issdc/missionchat/internal/models"
)

func TestLoadConfig_explicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9999
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != path {
		t.Errorf("resolved path: %s", resolved)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port: %d", cfg.Server.Port)
	}
}

func TestLoadConfig_missing(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		_ = json.NewEncoder(w).Encode(models.ChatResponse{Response: "echo: " + req.Message, Context: "N/A"})
	}))
	defer srv.Close()

	out, err := postChat(srv.URL, models.ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Response != "echo: hi" {
		t.Errorf("response: %q", out.Response)
	}
}

func TestPostJSON_serverError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "No message received"})
	}))
	defer srv.Close()

	if _, err := postAsk(srv.URL, models.AskRequest{}); err == nil {
		t.Error("expected error for non-200 response")
	}
}
