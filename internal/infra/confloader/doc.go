// Package confloader loads layered configuration with koanf.
//
// Sources, lowest to highest priority:
//
//  1. Defaults (the target struct as passed in, or LoadMap)
//  2. YAML file
//  3. Environment variables with the CAMLINK_ prefix
//
// Environment keys have the form PREFIX_SECTION_KEY. Only the first
// underscore after the prefix separates the section, so
// CAMLINK_STREAM_READ_LIMIT maps to stream.read_limit.
//
// Watcher reports writes to watched files via fsnotify for hot reload.
package confloader
