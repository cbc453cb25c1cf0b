package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Multiscale-Genomics/mg-dm-api/internal/config"
)

func TestManager_ReadWriteRoundTrip(t *testing.T) {
	cfg := config.NewConfig("/tmp/dm-home")
	cfg.Store.Type = "sqlite"
	cfg.DMP.FTPRoot = "http://ftp.example.org/files"
	cfg.DMP.RetentionDays = 30

	m := &config.Manager{}
	var buf bytes.Buffer
	if err := m.Write(&buf, cfg); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Store.Type != "sqlite" {
		t.Errorf("Store.Type = %q, want %q", got.Store.Type, "sqlite")
	}
	if got.Store.DataDir != filepath.Join("/tmp/dm-home", "db") {
		t.Errorf("Store.DataDir = %q", got.Store.DataDir)
	}
	if got.DMP.FTPRoot != cfg.DMP.FTPRoot {
		t.Errorf("DMP.FTPRoot = %q, want %q", got.DMP.FTPRoot, cfg.DMP.FTPRoot)
	}
	if got.DMP.RetentionDays != 30 {
		t.Errorf("DMP.RetentionDays = %d, want 30", got.DMP.RetentionDays)
	}
}

func TestManager_ReadDefaultsRetention(t *testing.T) {
	m := &config.Manager{}
	cfg, err := m.Read(bytes.NewBufferString("[store]\ntype = \"memory\"\n"))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.DMP.RetentionDays != config.DefaultRetentionDays {
		t.Errorf("DMP.RetentionDays = %d, want %d", cfg.DMP.RetentionDays, config.DefaultRetentionDays)
	}
}

func TestConfig_Retention(t *testing.T) {
	cfg := &config.Config{}
	if got := cfg.Retention(); got != 84*24*time.Hour {
		t.Errorf("Retention() = %v, want %v", got, 84*24*time.Hour)
	}

	cfg.DMP.RetentionDays = 7
	if got := cfg.Retention(); got != 7*24*time.Hour {
		t.Errorf("Retention() = %v, want %v", got, 7*24*time.Hour)
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dm.toml")
	cfg := config.NewConfig(t.TempDir())

	if err := config.Init(path, cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file mode = %o, want 0600", perm)
	}

	got, err := config.ReadFromFile(path)
	if err != nil {
		t.Fatalf("ReadFromFile() error = %v", err)
	}
	if got.Store.Type != cfg.Store.Type {
		t.Errorf("Store.Type = %q, want %q", got.Store.Type, cfg.Store.Type)
	}

	if err := config.Init(path, cfg); err == nil {
		t.Error("Init() on existing file error = nil, want error")
	}
}
