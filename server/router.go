package main

import (
	"embed"
	"encoding/json"
	"io"
	"log"
	mrand "math/rand"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"pokerlite/server/hub"
)

// embed the /web directory so the landing page ships in the binary
//
//go:embed web/*
var webFS embed.FS

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Router mounts the HTTP glue in front of the hub: landing page, join
// handshake, health, and the websocket endpoint.
func Router(h *hub.Hub) http.Handler {
	r := chi.NewRouter()

	r.Get("/", serveWelcome)

	r.Get("/api/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"ok": true, "connections": h.Registry().Len()})
	})

	// Plain-text join handshake: body "JOIN_GAME" gets a numeric
	// client id plus the welcome page. Bootstrapping only; the game
	// protocol lives on /ws.
	r.Post("/join", func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(io.LimitReader(req.Body, 1024))
		if err != nil || strings.TrimSpace(string(body)) != "JOIN_GAME" {
			http.Error(w, "expected JOIN_GAME", http.StatusBadRequest)
			return
		}
		clientID := mrand.Intn(900) + 100
		log.Printf("join handshake: client=%d remote=%s", clientID, req.RemoteAddr)
		w.Header().Set("X-Client-Id", strconv.Itoa(clientID))
		serveWelcome(w, req)
	})

	r.Get("/ws", h.HandleWS)

	return r
}

func serveWelcome(w http.ResponseWriter, req *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		http.Error(w, "welcome page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, _ = w.Write(page)
}
