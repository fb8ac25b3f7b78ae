// Package config loads resolver settings and exposes store configuration as
// a read-only key/value Provider.
//
// Settings are read from a YAML file, IMAGECACHE_* environment variables and
// defaults, in that order of precedence (environment highest). Directory
// settings may reference environment variables as ${VAR}.
package config
