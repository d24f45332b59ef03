package hostfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kylerisse/pingboard/pkg/host"
)

func TestLoad_MissingFile(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "data.json"))

	hosts, err := f.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hosts == nil || len(hosts) != 0 {
		t.Errorf("expected empty collection, got %#v", hosts)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	hosts, err := New(path).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hosts) != 0 {
		t.Errorf("expected empty collection, got %d hosts", len(hosts))
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(`{"hosts": [`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(path).Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_OriginalFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	content := `{
    "hosts": [
        {
            "id": 1717000000000,
            "name": "router",
            "ip": "192.168.1.1",
            "statusCurrent": 1,
            "statusHistory": [1, 1, 0, 1]
        }
    ]
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	hosts, err := New(path).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hosts) != 1 {
		t.Fatalf("expected 1 host, got %d", len(hosts))
	}
	if hosts[0].ID != 1717000000000 || hosts[0].Uptime() != 75 || !hosts[0].Up() {
		t.Errorf("unexpected host: %+v", hosts[0])
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	f := New(filepath.Join(dir, "data.json"))

	in := []host.Host{
		{ID: 2, Name: "nas", Address: "192.168.1.20", StatusHistory: []host.Liveness{}},
		{ID: 1, Name: "router", Address: "192.168.1.1", StatusCurrent: true, StatusHistory: host.Samples(true, false)},
	}
	if err := f.Save(in); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	out, err := f.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(out) != 2 || out[0].ID != 2 || out[1].Name != "router" || out[1].Uptime() != 50 {
		t.Errorf("unexpected round trip result: %+v", out)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestSave_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	f := New(path)

	if err := f.Save([]host.Host{{ID: 1, Name: "a", Address: "10.0.0.1", StatusCurrent: true, StatusHistory: host.Samples(true)}}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.HasPrefix(s, "{\n    \"hosts\": [") {
		t.Errorf("expected 4-space indentation, got:\n%s", s)
	}
	if !strings.Contains(s, `"statusCurrent": 1`) {
		t.Errorf("expected numeric liveness, got:\n%s", s)
	}
}

func TestSave_NilWritesEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := New(path).Save(nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"hosts": []`) {
		t.Errorf("expected empty list, got %s", data)
	}
}

func TestSave_MissingDirectory(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "nope", "data.json"))
	if err := f.Save(nil); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
