// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/wttp-foundation/wttp/lib/datapoint"
	"github.com/wttp-foundation/wttp/lib/wttp"
)

// Config is the master configuration for one WTTP site.
type Config struct {
	// Owner is the account seeded into the admin role. Required.
	Owner string `yaml:"owner"`

	// SiteAdminRole names the role gating resource-role creation and,
	// under the conventional default header, every write slot.
	// Default: site-admin.
	SiteAdminRole string `yaml:"site_admin_role"`

	// DefaultHeader is the response policy for paths without an
	// explicitly defined header.
	DefaultHeader HeaderConfig `yaml:"default_header"`

	// Registry selects and configures the chunk store backend.
	Registry RegistryConfig `yaml:"registry"`

	// Image configures engine-state persistence.
	Image ImageConfig `yaml:"image"`
}

// HeaderConfig describes a header in configuration terms: a canned
// access layout plus optional method, cache, and redirect settings.
type HeaderConfig struct {
	// Access is the canned origin layout: public (every slot open),
	// restricted (reads public, writes held by the site-admin role), or
	// private (every slot held by the site-admin role).
	// Default: restricted.
	Access string `yaml:"access"`

	// Methods lists the enabled method slots by protocol name. Empty
	// means every method except the reserved POST.
	Methods []string `yaml:"methods"`

	// Cache configures the header's cache-control directives.
	Cache CacheConfig `yaml:"cache"`

	// Redirect, when its code is set, short-circuits reads on paths
	// under this header.
	Redirect RedirectConfig `yaml:"redirect"`
}

// CacheConfig mirrors wttp.CacheControl in configuration terms.
type CacheConfig struct {
	// Preset selects canned directives: none, no-cache, default, short,
	// medium, long, or permanent.
	Preset string `yaml:"preset"`

	// Immutable appends the immutable directive.
	Immutable bool `yaml:"immutable"`

	// Custom overrides the preset's directives verbatim.
	Custom string `yaml:"custom"`
}

// RedirectConfig mirrors wttp.Redirect.
type RedirectConfig struct {
	Code     int    `yaml:"code"`
	Location string `yaml:"location"`
}

// RegistryConfig selects the chunk store backend.
type RegistryConfig struct {
	// Backend is memory or sqlite. Default: memory.
	Backend string `yaml:"backend"`

	// RoyaltyRate is the per-byte reuse fee fixed for each newly
	// registered chunk. Zero makes every reuse free.
	RoyaltyRate uint64 `yaml:"royalty_rate"`

	// SQLite configures the sqlite backend; ignored for memory.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig holds the persistent backend's parameters.
type SQLiteConfig struct {
	// Path is the database file. Required for the sqlite backend.
	Path string `yaml:"path"`

	// PoolSize is the connection pool size. Zero means the backend
	// default.
	PoolSize int `yaml:"pool_size"`

	// EncryptionKey enables at-rest payload encryption when set: the
	// key as hex, decoding to exactly 32 bytes.
	EncryptionKey string `yaml:"encryption_key"`
}

// ImageConfig configures engine-state persistence. An empty path
// disables it.
type ImageConfig struct {
	// Path is where the engine image is saved and loaded.
	Path string `yaml:"path"`

	// AutosaveInterval is how often the image is rewritten, as a Go
	// duration string ("30s", "5m"). Empty disables autosave.
	AutosaveInterval string `yaml:"autosave_interval"`
}

// Default returns a configuration with conventional values. These are
// the base a loaded file merges into; the file itself is required and
// must at least name an owner.
func Default() *Config {
	return &Config{
		SiteAdminRole: "site-admin",
		DefaultHeader: HeaderConfig{Access: "restricted"},
		Registry:      RegistryConfig{Backend: "memory"},
	}
}

// Load loads configuration from the file named by the WTTP_CONFIG
// environment variable. There is no fallback: if the variable is not
// set, loading fails.
func Load() (*Config, error) {
	path := os.Getenv("WTTP_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("WTTP_CONFIG environment variable not set; " +
			"set it to the path of your site config file")
	}
	return LoadFile(path)
}

// LoadFile loads and validates configuration from a specific path. The
// file extension selects the decoder: ".json" and ".jsonc" are
// stripped of comments and trailing commas first, everything else is
// treated as YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes one configuration document, merging it over Default
// and validating the result. ext is the source file's extension, used
// to detect JSON/JSONC input.
func Parse(data []byte, ext string) (*Config, error) {
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing site config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Owner == "" {
		errs = append(errs, fmt.Errorf("owner is required"))
	}
	if c.SiteAdminRole == "" {
		errs = append(errs, fmt.Errorf("site_admin_role is required"))
	}

	if _, err := c.DefaultHeader.Header(c.SiteAdmin()); err != nil {
		errs = append(errs, err)
	}

	switch c.Registry.Backend {
	case "memory":
	case "sqlite":
		if c.Registry.SQLite.Path == "" {
			errs = append(errs, fmt.Errorf("registry.sqlite.path is required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("registry.backend must be memory or sqlite, got %q", c.Registry.Backend))
	}

	if key := c.Registry.SQLite.EncryptionKey; key != "" {
		decoded, err := hex.DecodeString(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("registry.sqlite.encryption_key: %w", err))
		} else if len(decoded) != datapoint.EncryptionKeySize {
			errs = append(errs, fmt.Errorf("registry.sqlite.encryption_key must decode to %d bytes, got %d",
				datapoint.EncryptionKeySize, len(decoded)))
		}
	}

	if c.Image.AutosaveInterval != "" {
		if c.Image.Path == "" {
			errs = append(errs, fmt.Errorf("image.autosave_interval is set but image.path is empty"))
		}
		if _, err := time.ParseDuration(c.Image.AutosaveInterval); err != nil {
			errs = append(errs, fmt.Errorf("image.autosave_interval: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// OwnerAccount returns the configured owner as a protocol account.
func (c *Config) OwnerAccount() wttp.Account {
	return wttp.Account(c.Owner)
}

// SiteAdmin returns the configured site-admin role identifier.
func (c *Config) SiteAdmin() wttp.Role {
	return wttp.RoleFromName(c.SiteAdminRole)
}

// EncryptionKey returns the decoded sqlite encryption key, or nil when
// none is configured. Call Validate first; a malformed key also
// decodes to nil here.
func (c *Config) EncryptionKey() []byte {
	if c.Registry.SQLite.EncryptionKey == "" {
		return nil
	}
	decoded, err := hex.DecodeString(c.Registry.SQLite.EncryptionKey)
	if err != nil || len(decoded) != datapoint.EncryptionKeySize {
		return nil
	}
	return decoded
}

// AutosaveInterval returns the parsed autosave interval, or zero when
// autosave is disabled or the value is malformed.
func (c *Config) AutosaveInterval() time.Duration {
	if c.Image.AutosaveInterval == "" {
		return 0
	}
	interval, err := time.ParseDuration(c.Image.AutosaveInterval)
	if err != nil {
		return 0
	}
	return interval
}

// Header materializes the configured default header. admin fills the
// administrative slots of the canned access layouts.
func (h HeaderConfig) Header(admin wttp.Role) (wttp.Header, error) {
	access, err := parseAccess(h.Access)
	if err != nil {
		return wttp.Header{}, err
	}
	origins, _ := access.Origins(admin)

	mask := wttp.AllMethods.Without(wttp.MethodPost)
	if len(h.Methods) > 0 {
		mask = 0
		for _, name := range h.Methods {
			method, err := wttp.ParseMethod(name)
			if err != nil {
				return wttp.Header{}, fmt.Errorf("default_header.methods: %w", err)
			}
			mask = mask.With(method)
		}
	}

	cache, err := parseCachePreset(h.Cache.Preset)
	if err != nil {
		return wttp.Header{}, err
	}

	header := wttp.Header{
		Cache: wttp.CacheControl{
			Immutable: h.Cache.Immutable,
			Preset:    cache,
			Custom:    h.Cache.Custom,
		},
		CORS: wttp.CORSPolicy{
			Methods: mask,
			Origins: origins,
			Preset:  access,
		},
		Redirect: wttp.Redirect{
			Code:     wttp.Status(h.Redirect.Code),
			Location: h.Redirect.Location,
		},
	}
	if err := header.Validate(); err != nil {
		return wttp.Header{}, fmt.Errorf("default_header: %w", err)
	}
	return header, nil
}

func parseAccess(name string) (wttp.CORSPreset, error) {
	switch name {
	case "public":
		return wttp.CORSPresetPublic, nil
	case "", "restricted":
		return wttp.CORSPresetRestricted, nil
	case "private":
		return wttp.CORSPresetPrivate, nil
	}
	return 0, fmt.Errorf("default_header.access must be public, restricted, or private, got %q", name)
}

var cachePresets = map[string]wttp.CachePreset{
	"":          wttp.CachePresetNone,
	"none":      wttp.CachePresetNone,
	"no-cache":  wttp.CachePresetNoCache,
	"default":   wttp.CachePresetDefault,
	"short":     wttp.CachePresetShort,
	"medium":    wttp.CachePresetMedium,
	"long":      wttp.CachePresetLong,
	"permanent": wttp.CachePresetPermanent,
}

func parseCachePreset(name string) (wttp.CachePreset, error) {
	preset, ok := cachePresets[name]
	if !ok {
		return 0, fmt.Errorf("default_header.cache.preset: unknown preset %q", name)
	}
	return preset, nil
}
