package client

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	transports "github.com/rzbill/logbook/internal/cmd/client/transports"
	cfgpkg "github.com/rzbill/logbook/internal/config"
	"github.com/rzbill/logbook/internal/runtime"
	httpserver "github.com/rzbill/logbook/internal/server/http"
	logpkg "github.com/rzbill/logbook/pkg/log"
)

func startServer(t *testing.T) BaseURLFunc {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.DataDir = t.TempDir()
	logger := logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: logger})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	srv := httptest.NewServer(httpserver.New(rt, logger).Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = rt.Close()
	})
	return func() string { return srv.URL }
}

func run(t *testing.T, baseURL BaseURLFunc, args ...string) (string, error) {
	t.Helper()
	root := NewRoot(baseURL)
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, baseURL BaseURLFunc, args ...string) string {
	t.Helper()
	out, err := run(t, baseURL, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func TestLogTypeAndLogCommands(t *testing.T) {
	baseURL := startServer(t)

	var lt transports.LogType
	out := mustRun(t, baseURL, "logtype", "create", "--name", "Coffee", "--json")
	if err := json.Unmarshal([]byte(out), &lt); err != nil {
		t.Fatalf("decode create output %q: %v", out, err)
	}
	mustRun(t, baseURL, "logtype", "edit", lt.ID, "--color", "green", "--patch",
		`{"placeholders":[{"id":"at","name":"text","kind":"text","content":"At"},{"id":"place","name":"place","kind":"select","options":["home","office"]}]}`)

	out = mustRun(t, baseURL, "log", "add", lt.ID, "--value", "place=home")
	if !strings.Contains(out, "At home") || !strings.Contains(out, "revision: "+lt.ID+"\n") {
		t.Fatalf("log add output: %q", out)
	}

	out = mustRun(t, baseURL, "placeholder", "add", lt.ID, "--kind", "text-input", "--name", "note")
	pid := strings.TrimSpace(strings.TrimPrefix(out, "added:"))
	if pid == "" {
		t.Fatalf("placeholder add output: %q", out)
	}

	var l transports.Log
	out = mustRun(t, baseURL, "log", "add", lt.ID, "--value", "place=office", "--value", "note=busy", "--json")
	if err := json.Unmarshal([]byte(out), &l); err != nil {
		t.Fatalf("decode log: %v", err)
	}
	if l.RevisionID != lt.ID+":1" || l.Content != "At office busy" {
		t.Fatalf("second log: %+v", l)
	}

	var logs []transports.Log
	out = mustRun(t, baseURL, "log", "list", "--contain", "BUSY", "--json")
	if err := json.Unmarshal([]byte(out), &logs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(logs) != 1 || logs[0].ID != l.ID {
		t.Fatalf("filtered list: %+v", logs)
	}

	out = mustRun(t, baseURL, "log", "list", "--where", `fields["place"] == "home"`)
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 1 || !strings.Contains(lines[0], "At home") {
		t.Fatalf("where list: %q", out)
	}

	out = mustRun(t, baseURL, "log", "history", pid)
	if strings.TrimSpace(out) != "busy" {
		t.Fatalf("history: %q", out)
	}

	out = mustRun(t, baseURL, "logtype", "revisions", lt.ID)
	if !strings.Contains(out, "at revision 1") || !strings.Contains(out, lt.ID+":1") {
		t.Fatalf("revisions: %q", out)
	}

	out = mustRun(t, baseURL, "logtype", "diff", lt.ID, "--from", lt.ID+":0")
	if !strings.Contains(out, "+ note") {
		t.Fatalf("diff: %q", out)
	}

	out = mustRun(t, baseURL, "log", "sections")
	if !strings.Contains(out, "(2)") {
		t.Fatalf("sections: %q", out)
	}
}

func TestLogAddRejectsUnknownPlaceholder(t *testing.T) {
	baseURL := startServer(t)
	var lt transports.LogType
	out := mustRun(t, baseURL, "logtype", "create", "--json")
	if err := json.Unmarshal([]byte(out), &lt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := run(t, baseURL, "log", "add", lt.ID, "--value", "nope=1"); err == nil {
		t.Fatalf("expected unknown placeholder error")
	}
	if _, err := run(t, baseURL, "log", "add", lt.ID, "--value", "novalue"); err == nil {
		t.Fatalf("expected malformed value error")
	}
	_, err := run(t, baseURL, "logtype", "show", "missing")
	if !transports.IsNotFound(err) {
		t.Fatalf("show missing: err = %v", err)
	}
}

func TestArchiveCommands(t *testing.T) {
	baseURL := startServer(t)
	var lt transports.LogType
	out := mustRun(t, baseURL, "logtype", "create", "--name", "gym", "--json")
	if err := json.Unmarshal([]byte(out), &lt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out := mustRun(t, baseURL, "logtype", "archive", lt.ID); !strings.Contains(out, "archived") {
		t.Fatalf("archive: %q", out)
	}
	if out := mustRun(t, baseURL, "logtype", "list"); strings.Contains(out, lt.ID) {
		t.Fatalf("archived type listed: %q", out)
	}
	if out := mustRun(t, baseURL, "logtype", "list", "--archived"); !strings.Contains(out, lt.ID) {
		t.Fatalf("archived type missing with --archived: %q", out)
	}
	mustRun(t, baseURL, "logtype", "unarchive", lt.ID)
	if out := mustRun(t, baseURL, "logtype", "list"); !strings.Contains(out, lt.ID) {
		t.Fatalf("unarchived type not listed: %q", out)
	}
}

func TestDevCommands(t *testing.T) {
	baseURL := startServer(t)
	if _, err := run(t, baseURL, "dev", "clear"); err == nil {
		t.Fatalf("clear without --confirm succeeded")
	}
	mustRun(t, baseURL, "dev", "seed")
	if out := mustRun(t, baseURL, "dev", "generate", "--count", "5"); !strings.Contains(out, "generated: 5") {
		t.Fatalf("generate: %q", out)
	}
	mustRun(t, baseURL, "dev", "clear", "--confirm")
	if out := mustRun(t, baseURL, "log", "list"); strings.TrimSpace(out) != "" {
		t.Fatalf("logs after clear: %q", out)
	}
	if out := mustRun(t, baseURL, "logtype", "list"); !strings.Contains(out, "seed-coffee") {
		t.Fatalf("clear removed log types: %q", out)
	}

	mustRun(t, baseURL, "dev", "clear", "--all", "--confirm")
	if out := mustRun(t, baseURL, "logtype", "list"); strings.Contains(out, "seed-coffee") {
		t.Fatalf("log types after clear --all: %q", out)
	}
	if _, err := run(t, baseURL, "dev", "reset"); err == nil {
		t.Fatalf("reset without --confirm succeeded")
	}
	if out := mustRun(t, baseURL, "dev", "reset", "--confirm"); !strings.Contains(out, "reset: 5 log types") {
		t.Fatalf("reset: %q", out)
	}
	if out := mustRun(t, baseURL, "logtype", "list"); !strings.Contains(out, "seed-coffee") {
		t.Fatalf("log types after reset: %q", out)
	}
}
