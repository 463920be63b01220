package stats

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc("events")
		}()
	}
	wg.Wait()
	c.Add("actions", 3)
	if c.Get("events") != 50 || c.Get("actions") != 3 || c.Get("captcha") != 0 {
		t.Fatalf("snapshot = %v", c.Snapshot())
	}
	snap := c.Snapshot()
	c.Inc("events")
	if snap["events"] != 50 {
		t.Fatal("snapshot must be a copy")
	}
	if got := Names(c.Snapshot()); len(got) != 2 || got[0] != "actions" {
		t.Fatalf("names = %v", got)
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stats.db")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	runID, err := s.StartRun(ctx, "farm")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveCounters(ctx, runID, map[string]int64{"events": 4, "actions": 2}); err != nil {
		t.Fatal(err)
	}
	// повторное сохранение перезаписывает, а не складывает
	if err := s.SaveCounters(ctx, runID, map[string]int64{"events": 5, "actions": 2}); err != nil {
		t.Fatal(err)
	}
	if err := s.FinishRun(ctx, runID, "Force exit", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	second, err := s.StartRun(ctx, "run")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveCounters(ctx, second, map[string]int64{"events": 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.FinishRun(ctx, second, "fatal: dial", errors.New("dial")); err != nil {
		t.Fatal(err)
	}

	totals, err := s.Totals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if totals["events"] != 6 || totals["actions"] != 2 {
		t.Fatalf("totals = %v", totals)
	}

	runs, err := s.Runs(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %+v", runs)
	}
	byID := map[string]Run{runs[0].ID: runs[0], runs[1].ID: runs[1]}
	if r := byID[runID]; r.Mode != "farm" || r.Reason != "Force exit" || r.FinishedAt.IsZero() {
		t.Fatalf("first run = %+v", r)
	}
	if r := byID[second]; r.Error != "dial" {
		t.Fatalf("second run = %+v", r)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.FinishRun(context.Background(), "missing", "", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected error")
	}
}

func TestReporterReportAndSave(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	runID, err := s.StartRun(ctx, "farm")
	if err != nil {
		t.Fatal(err)
	}

	c := NewCollector()
	c.Inc("events")
	c.Inc("captcha")

	var buf bytes.Buffer
	r := &Reporter{
		Collector: c,
		Store:     s,
		RunID:     runID,
		Cron:      "* * * * *",
		Logger:    slog.New(slog.NewTextHandler(&buf, nil)),
	}
	r.Report(ctx)
	if !strings.Contains(buf.String(), "captcha=1 events=1") {
		t.Fatalf("log = %q", buf.String())
	}
	totals, err := s.Totals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if totals["captcha"] != 1 {
		t.Fatalf("totals = %v", totals)
	}

	// отмена контекста — финальный отчёт и выход
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	buf.Reset()
	if err := r.Run(cctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "stats") {
		t.Fatal("final report missing")
	}
}

func TestReporterBadCron(t *testing.T) {
	r := &Reporter{Collector: NewCollector(), Cron: "nope"}
	if err := r.Run(context.Background()); err == nil {
		t.Fatal("expected schedule error")
	}
}
