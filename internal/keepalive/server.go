// Package keepalive answers health probes and periodically pings the
// bot's own public URL so free-tier hosts do not put the process to
// sleep.
package keepalive

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"
)

const pingInterval = 5 * time.Minute

// RunServer starts the keep-alive HTTP server and blocks until ctx is
// cancelled; run in a goroutine.
func RunServer(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, "Bot is running!")
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		log.Println("[INFO] Shutting down keep-alive server...")
		srv.Shutdown(context.Background()) //nolint:errcheck
	}()

	log.Printf("[INFO] Keep-alive server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		// Log the error but do NOT call log.Fatal — that would kill the whole process.
		log.Printf("[ERR] Keep-alive server exited: %v", err)
	}
}

// RunPinger hits url every five minutes until ctx is done. Failures are
// logged and the next tick tries again.
func RunPinger(ctx context.Context, url string) {
	if url == "" {
		return
	}

	client := &http.Client{Timeout: 10 * time.Second}
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			resp, err := client.Get(url)
			if err != nil {
				log.Printf("[WARN] Self-ping failed: %v", err)
				continue
			}
			io.Copy(io.Discard, resp.Body) //nolint:errcheck
			resp.Body.Close()
			log.Println("[INFO] Pinged self to stay awake")
		}
	}
}
