package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"pokerlite/server/engine"
	"pokerlite/server/hub"
)

//
// ===== bootstrap =====
//

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	_ = godotenv.Load()

	port := getenv("PORT", "8080")
	startChips := atoiDef(os.Getenv("START_CHIPS"), 100)
	sendBuffer := atoiDef(os.Getenv("SEND_BUFFER"), 64)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchSignals(cancel)

	game := engine.New()
	h := hub.New(
		hub.Config{StartChips: startChips, SendBuffer: sendBuffer},
		game,
		log.New(os.Stdout, "[hub] ", log.LstdFlags|log.Lmicroseconds),
	)
	go h.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           Router(h),
		ReadHeaderTimeout: 15 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutCtx)
	}()

	log.Printf("listening on http://localhost:%s (Ctrl+C to stop)", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func watchSignals(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	cancel()
}
