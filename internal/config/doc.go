// Package config handles configuration loading for parley.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion. Every field has a default, so parley runs with no config
// file at all.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from PARLEY_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/parley/parley.yaml
//  3. ~/.config/parley/parley.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	tailscale:
//	  auth_key: "${TS_AUTHKEY}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	stream:
//	  heartbeat: "20s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  host: "127.0.0.1"
//	  port: 8891
//	  shutdown_timeout: "5s"
//
// Storage:
//
//	storage:
//	  backend: "json"   # json or sqlite
//	  path: ""          # defaults to the data dir
//
// Event stream:
//
//	stream:
//	  heartbeat: "20s"  # idle gap before a comment heartbeat
//
// Message bus:
//
//	bus:
//	  buffer: 64
//
// Agent:
//
//	agent:
//	  type: "echo"
//	  delay: "0s"
//
// Tailscale:
//
//	tailscale:
//	  enabled: false
//	  hostname: "parley"
//	  auth_key: "${TS_AUTHKEY}"
//	  state_dir: ""     # defaults to <data dir>/tsnet
//	  ephemeral: false
//	  funnel: false
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Data Directory
//
// Storage and Tailscale state default to the data directory, resolved as
// PARLEY_DATA, then $XDG_DATA_HOME/parley, then ~/.local/share/parley.
package config
