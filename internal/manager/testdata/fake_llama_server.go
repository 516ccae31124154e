package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
)

// A stand-in for llama-server used by the manager tests. It accepts the
// flags the manager passes, exits 1 when the model file is missing, and
// answers /health with 503 until FAKE_LLAMA_WARMUP_MS has elapsed.
func main() {
	var model, host, port, mmproj string
	var ctxSize, nPredict int
	flag.StringVar(&model, "m", "", "model path")
	flag.StringVar(&host, "host", "127.0.0.1", "host")
	flag.StringVar(&port, "port", "0", "port")
	flag.IntVar(&ctxSize, "ctx-size", 0, "context size")
	flag.IntVar(&nPredict, "n-predict", 0, "max tokens")
	flag.StringVar(&mmproj, "mmproj", "", "projector path")
	flag.Parse()

	if _, err := os.Stat(model); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load model '%s'\n", model)
		os.Exit(1)
	}
	if ctxSize <= 0 || nPredict <= 0 {
		fmt.Fprintln(os.Stderr, "error: --ctx-size and --n-predict are required")
		os.Exit(2)
	}

	warmup, _ := strconv.Atoi(os.Getenv("FAKE_LLAMA_WARMUP_MS"))
	readyAt := time.Now().Add(time.Duration(warmup) * time.Millisecond)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if time.Now().Before(readyAt) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"loading model"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/props", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"model_path":%q,"mmproj":%q,"n_ctx":%d,"n_predict":%d}`, model, mmproj, ctxSize, nPredict)
	})

	fmt.Println("main: server is listening on " + host + ":" + port)
	srv := &http.Server{Addr: host + ":" + port, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
