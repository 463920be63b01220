package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/EgorLis/tgfarm/internal/config"
	"github.com/EgorLis/tgfarm/internal/gateway"
	"github.com/EgorLis/tgfarm/internal/scheduler"
	"github.com/EgorLis/tgfarm/internal/stats"
	"github.com/EgorLis/tgfarm/internal/trainer"
)

// sessionBridge отвечает на запросы клиента пустыми успешными ответами,
// GetMe и ResolvePeer — фиксированными пирами.
func sessionBridge(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			req, err := gateway.DecodeRequest(data)
			if err != nil {
				return
			}
			resp := &gateway.Response{Seq: req.Seq}
			switch req.Method {
			case gateway.MethodGetMe:
				resp.PeerID, resp.PeerUsername = 1, "me"
			case gateway.MethodResolvePeer:
				resp.PeerID, resp.PeerUsername = 2, req.Username
			}
			out, err := gateway.EncodeMessage(&gateway.Message{Response: resp})
			if err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, out); err != nil {
				return
			}
		}
	}))
}

func testConfig(t *testing.T, url string) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Gateway.URL = url
	cfg.Gateway.Retries = 1
	cfg.Gateway.RetryDelay = 10 * time.Millisecond
	cfg.Gateway.RequestTimeout = time.Second
	cfg.Throttle = config.ThrottleConf{}
	cfg.LoopTick = 5 * time.Millisecond
	cfg.LockFile = filepath.Join(dir, "tgfarm.lock")
	cfg.Stats.DBPath = filepath.Join(dir, "stats.db")
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTrainInterruptRecordsReason(t *testing.T) {
	srv := sessionBridge(t)
	defer srv.Close()
	cfg := testConfig(t, "ws"+strings.TrimPrefix(srv.URL, "http"))

	// отменённый parent — то же, что Ctrl+C до старта цикла
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- train(parent, trainer.ModeRun, cfg, quietLogger()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("train: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("train did not stop on interrupt")
	}

	store, err := stats.Open(cfg.Stats.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	runs, err := store.Runs(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %+v", runs)
	}
	if runs[0].Reason != "interrupt" || runs[0].Mode != "run" || runs[0].FinishedAt.IsZero() {
		t.Fatalf("run = %+v", runs[0])
	}
}

func TestTrainUnreachableGatewayIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	err := train(context.Background(), trainer.ModeFarm, testConfig(t, url), quietLogger())
	if !errors.Is(err, scheduler.ErrFatal) {
		t.Fatalf("err = %v, want ErrFatal", err)
	}
	if code := exitCode(err); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, 0},
		{"config", errors.New("invalid config"), 1},
		{"fatal", scheduler.ErrFatal, 2},
		{"wrapped fatal", errors.Join(errors.New("farm"), scheduler.ErrFatal), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWatchInterrupt(t *testing.T) {
	flags := scheduler.NewFlags()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		watchInterrupt(ctx, flags)
		close(done)
	}()
	cancel()
	<-done
	if flags.Reason() != "interrupt" {
		t.Fatalf("reason = %q", flags.Reason())
	}

	// после выхода по другой причине сигнал ничего не меняет
	flags = scheduler.NewFlags()
	flags.RequestExit("Force exit")
	watchInterrupt(context.Background(), flags)
	if flags.Reason() != "Force exit" {
		t.Fatalf("reason = %q", flags.Reason())
	}
}
