// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides site configuration loading for the WTTP
// engine.
//
// Configuration is loaded from a single file specified by either the
// WTTP_CONFIG environment variable (via [Load]) or an explicit path
// (via [LoadFile]). There are no fallbacks and no automatic discovery:
// a site's configuration is deterministic and auditable.
//
// Files are YAML. JSON and JSONC (JSON with comments and trailing
// commas) are accepted for ".json" and ".jsonc" paths; they are
// stripped to plain JSON before decoding, which YAML parses as a
// subset.
//
// Key exports:
//
//   - [Config] -- owner, roles, default header, registry backend, image
//   - [Default] -- a Config with conventional defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// The package translates configuration into protocol values
// ([Config.SiteAdmin], [HeaderConfig.Header]) but never constructs an
// engine; that wiring lives with the site package.
package config
