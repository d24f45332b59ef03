package server

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kylerisse/pingboard/pkg/host"
	"github.com/kylerisse/pingboard/pkg/hostfile"
	"github.com/kylerisse/pingboard/pkg/store"
	"github.com/kylerisse/pingboard/pkg/syncer"
)

const testToken = "secret"

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.DebugLevel)
	return l
}

func seedHosts() []host.Host {
	return []host.Host{
		{ID: 10, Name: "router", Address: "192.168.1.1", StatusCurrent: true, StatusHistory: host.Samples(true, true, false, true)},
		{ID: 20, Name: "nas", Address: "192.168.1.20", StatusCurrent: false, StatusHistory: host.Samples(false)},
		{ID: 30, Name: "printer", Address: "192.168.1.30", StatusCurrent: true, StatusHistory: []host.Liveness{}},
	}
}

// newTestServer returns a server backed by a host file in a temp dir,
// seeded with hosts.
func newTestServer(t *testing.T, hosts []host.Host, opts ...Option) *Server {
	t.Helper()
	file := hostfile.New(filepath.Join(t.TempDir(), "data.json"))
	if hosts != nil {
		if err := file.Save(hosts); err != nil {
			t.Fatalf("seeding host file: %v", err)
		}
	}
	s, err := NewServer(file, testToken, testLogger(), opts...)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func TestNewServer_EmptyToken(t *testing.T) {
	file := hostfile.New(filepath.Join(t.TempDir(), "data.json"))
	if _, err := NewServer(file, "", testLogger()); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestNewServer_LoadsHostFile(t *testing.T) {
	s := newTestServer(t, seedHosts())
	if got := len(s.snapshot()); got != 3 {
		t.Errorf("expected 3 hosts, got %d", got)
	}
}

func TestNewServer_MissingHostFile(t *testing.T) {
	s := newTestServer(t, nil)
	if got := len(s.snapshot()); got != 0 {
		t.Errorf("expected empty collection, got %d", got)
	}
}

func TestNewServer_CorruptHostFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewServer(hostfile.New(path), testToken, testLogger()); err == nil {
		t.Fatal("expected error for corrupt host file")
	}
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s := newTestServer(t, seedHosts())

	snap := s.snapshot()
	snap[0].Name = "changed"
	snap[0].StatusHistory[0] = false

	again := s.snapshot()
	if again[0].Name != "router" || !bool(again[0].StatusHistory[0]) {
		t.Errorf("snapshot mutation leaked into server: %+v", again[0])
	}
}

func TestReplace_PersistsBeforeSwap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	s, err := NewServer(hostfile.New(path), testToken, testLogger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	// a directory in place of the file makes the rename fail
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := s.replace(seedHosts()); err == nil {
		t.Fatal("expected persist error")
	}
	if got := len(s.snapshot()); got != 0 {
		t.Errorf("failed save must not change served hosts, got %d", got)
	}
}

// TestEngineRoundTrip drives a real sync engine against a running server.
func TestEngineRoundTrip(t *testing.T) {
	s := newTestServer(t, seedHosts(), WithListenAddr("127.0.0.1:0"), WithHistoryWindow(3))
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})

	backend, err := syncer.NewHTTPBackend("http://" + s.Addr())
	if err != nil {
		t.Fatalf("NewHTTPBackend: %v", err)
	}
	eng := syncer.New(backend, store.New(), syncer.NewStaticToken(testToken, nil), syncer.WithLogger(testLogger()))

	ctx := context.Background()
	if err := eng.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if eng.Store().Len() != 3 {
		t.Fatalf("expected 3 hosts, got %d", eng.Store().Len())
	}

	created, err := eng.Save(ctx, host.Host{Name: "web1", Address: "10.0.0.5"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok := eng.Store().Get(created.ID)
	if !ok || got.Name != "web1" || got.Address != "10.0.0.5" {
		t.Errorf("expected created host after reconcile, got %+v (found=%v)", got, ok)
	}

	// history was cut to the newest three samples on save
	router, _ := eng.Store().Get(10)
	if len(router.StatusHistory) != 3 || router.Uptime() != 67 {
		t.Errorf("expected trimmed history, got %v", router.StatusHistory)
	}

	if err := eng.Delete(ctx, 20); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := eng.Store().Get(20); ok {
		t.Error("expected host 20 to be deleted")
	}
	if got := len(s.snapshot()); got != 3 {
		t.Errorf("expected server to hold 3 hosts, got %d", got)
	}

	onDisk, err := s.file.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(onDisk) != 3 {
		t.Errorf("expected 3 hosts on disk, got %d", len(onDisk))
	}
}

func TestEngineRoundTrip_WrongToken(t *testing.T) {
	s := newTestServer(t, seedHosts(), WithListenAddr("127.0.0.1:0"))
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	backend, err := syncer.NewHTTPBackend("http://" + s.Addr())
	if err != nil {
		t.Fatalf("NewHTTPBackend: %v", err)
	}
	var rejected error
	creds := syncer.NewStaticToken("wrong", func(err error) { rejected = err })
	eng := syncer.New(backend, store.New(), creds, syncer.WithLogger(testLogger()))

	err = eng.Authenticate(context.Background())
	if !errors.Is(err, syncer.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if rejected == nil {
		t.Error("expected credential owner to be notified")
	}
	if eng.State() != syncer.Unauthenticated {
		t.Errorf("expected unauthenticated, got %s", eng.State())
	}
}

func TestStop_BeforeStart(t *testing.T) {
	s := newTestServer(t, nil)
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if s.Addr() != "" {
		t.Errorf("expected no address before start, got %q", s.Addr())
	}
}
