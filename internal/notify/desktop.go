package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Desktop показывает системное уведомление через утилиту ОС.
type Desktop struct {
	title   string
	timeout time.Duration
	goos    string
	run     func(ctx context.Context, name string, args ...string) error
}

func NewDesktop(title string, timeout time.Duration) *Desktop {
	return &Desktop{title: title, timeout: timeout, goos: runtime.GOOS, run: startCommand}
}

func startCommand(ctx context.Context, name string, args ...string) error {
	// не ждём: окно уведомления живёт своей жизнью
	return exec.CommandContext(ctx, name, args...).Start()
}

func (d *Desktop) Send(ctx context.Context, message string) error {
	name, args := desktopCommand(d.goos, d.title, message, d.timeout)
	if err := d.run(ctx, name, args...); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func desktopCommand(goos, title, message string, timeout time.Duration) (string, []string) {
	switch goos {
	case "windows":
		secs := int(timeout / time.Second)
		if secs <= 0 {
			secs = 10
		}
		return "msg", []string{"*", "/time:" + strconv.Itoa(secs), title + ": " + message}
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", appleQuote(message), appleQuote(title))
		return "osascript", []string{"-e", script}
	default:
		ms := timeout.Milliseconds()
		if ms <= 0 {
			ms = 10000
		}
		return "notify-send", []string{"-t", strconv.FormatInt(ms, 10), title, message}
	}
}

func appleQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
