// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wttp-foundation/wttp/lib/wttp"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.SiteAdminRole != "site-admin" {
		t.Errorf("SiteAdminRole = %q, want site-admin", cfg.SiteAdminRole)
	}
	if cfg.DefaultHeader.Access != "restricted" {
		t.Errorf("Access = %q, want restricted", cfg.DefaultHeader.Access)
	}
	if cfg.Registry.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", cfg.Registry.Backend)
	}
}

func TestLoadRequiresEnvVar(t *testing.T) {
	t.Setenv("WTTP_CONFIG", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load succeeded without WTTP_CONFIG")
	}
	if !strings.Contains(err.Error(), "WTTP_CONFIG") {
		t.Errorf("error %q does not name the variable", err)
	}
}

func TestLoadFromEnvVar(t *testing.T) {
	path := writeConfig(t, "site.yaml", `
owner: acct:alice
`)
	t.Setenv("WTTP_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Owner != "acct:alice" {
		t.Errorf("Owner = %q, want acct:alice", cfg.Owner)
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := writeConfig(t, "site.yaml", `
owner: acct:alice
site_admin_role: operators

default_header:
  access: public
  methods: [HEAD, GET, OPTIONS]
  cache:
    preset: long
    immutable: true

registry:
  backend: sqlite
  royalty_rate: 2
  sqlite:
    path: /var/lib/wttp/registry.db
    pool_size: 8

image:
  path: /var/lib/wttp/site.image
  autosave_interval: 30s
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.OwnerAccount() != wttp.Account("acct:alice") {
		t.Errorf("OwnerAccount = %q, want acct:alice", cfg.OwnerAccount())
	}
	if cfg.SiteAdmin() != wttp.RoleFromName("operators") {
		t.Errorf("SiteAdmin = %s, want operators", cfg.SiteAdmin())
	}
	if cfg.Registry.Backend != "sqlite" || cfg.Registry.SQLite.PoolSize != 8 {
		t.Errorf("registry = %+v, want sqlite with pool 8", cfg.Registry)
	}
	if cfg.Registry.RoyaltyRate != 2 {
		t.Errorf("RoyaltyRate = %d, want 2", cfg.Registry.RoyaltyRate)
	}
	if got := cfg.AutosaveInterval(); got != 30*time.Second {
		t.Errorf("AutosaveInterval = %v, want 30s", got)
	}

	header, err := cfg.DefaultHeader.Header(cfg.SiteAdmin())
	if err != nil {
		t.Fatalf("Header: %v", err)
	}
	want := wttp.MaskOf(wttp.MethodHead, wttp.MethodGet, wttp.MethodOptions)
	if header.CORS.Methods != want {
		t.Errorf("Methods = %v, want %v", header.CORS.Methods, want)
	}
	if header.CORS.Origins[wttp.MethodGet] != wttp.PublicRole {
		t.Error("public access did not open the GET slot")
	}
	if header.Cache.Preset != wttp.CachePresetLong || !header.Cache.Immutable {
		t.Errorf("Cache = %+v, want long and immutable", header.Cache)
	}
}

func TestLoadFileJSONC(t *testing.T) {
	path := writeConfig(t, "site.jsonc", `{
	// The publishing account.
	"owner": "acct:alice",
	"default_header": {
		"access": "private",
		"redirect": {
			"code": 308,
			"location": "/v2/",
		},
	},
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	header, err := cfg.DefaultHeader.Header(cfg.SiteAdmin())
	if err != nil {
		t.Fatalf("Header: %v", err)
	}
	if header.Redirect.Code != wttp.StatusPermanentRedirect {
		t.Errorf("Redirect.Code = %v, want 308", header.Redirect.Code)
	}
	if header.CORS.Origins[wttp.MethodGet] != cfg.SiteAdmin() {
		t.Error("private access left the GET slot open")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(cfg *Config)
		fragment string
	}{
		{
			"missing owner",
			func(cfg *Config) { cfg.Owner = "" },
			"owner is required",
		},
		{
			"unknown backend",
			func(cfg *Config) { cfg.Registry.Backend = "postgres" },
			"registry.backend",
		},
		{
			"sqlite without path",
			func(cfg *Config) { cfg.Registry.Backend = "sqlite" },
			"registry.sqlite.path",
		},
		{
			"bad encryption key",
			func(cfg *Config) { cfg.Registry.SQLite.EncryptionKey = "abc" },
			"encryption_key",
		},
		{
			"short encryption key",
			func(cfg *Config) { cfg.Registry.SQLite.EncryptionKey = "abcd" },
			"32 bytes",
		},
		{
			"unknown access layout",
			func(cfg *Config) { cfg.DefaultHeader.Access = "everyone" },
			"default_header.access",
		},
		{
			"unknown method name",
			func(cfg *Config) { cfg.DefaultHeader.Methods = []string{"TRACE"} },
			"unknown method",
		},
		{
			"unknown cache preset",
			func(cfg *Config) { cfg.DefaultHeader.Cache.Preset = "forever" },
			"cache.preset",
		},
		{
			"non-3xx redirect",
			func(cfg *Config) {
				cfg.DefaultHeader.Redirect = RedirectConfig{Code: 200, Location: "/x"}
			},
			"redirect code",
		},
		{
			"autosave without image path",
			func(cfg *Config) { cfg.Image.AutosaveInterval = "30s" },
			"image.path",
		},
		{
			"bad autosave interval",
			func(cfg *Config) {
				cfg.Image = ImageConfig{Path: "/tmp/site.image", AutosaveInterval: "soon"}
			},
			"autosave_interval",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Owner = "acct:alice"
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate passed")
			}
			if !strings.Contains(err.Error(), tc.fragment) {
				t.Errorf("error %q does not mention %q", err, tc.fragment)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Registry.Backend = "postgres"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate passed")
	}
	for _, fragment := range []string{"owner is required", "registry.backend"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error %q does not mention %q", err, fragment)
		}
	}
}

func TestEncryptionKeyDecodes(t *testing.T) {
	key := strings.Repeat("ab", 32)
	cfg := Default()
	cfg.Owner = "acct:alice"
	cfg.Registry.SQLite.EncryptionKey = key

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	decoded := cfg.EncryptionKey()
	want, _ := hex.DecodeString(key)
	if len(decoded) != 32 || string(decoded) != string(want) {
		t.Errorf("EncryptionKey = %x, want %s", decoded, key)
	}

	cfg.Registry.SQLite.EncryptionKey = ""
	if cfg.EncryptionKey() != nil {
		t.Error("empty key did not decode to nil")
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("owner: [unclosed"), ".yaml"); err == nil {
		t.Error("Parse accepted malformed YAML")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadFile succeeded on a missing file")
	}
}
