// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

/*
Package config loads printdeck configuration with Koanf v2.

Sources are layered, later layers win:

 1. Defaults from defaultConfig()
 2. An optional YAML file: $CONFIG_PATH, ./printdeck.yaml, ./printdeck.yml,
    /etc/printdeck/config.yaml
 3. Environment variables listed in envMappings

Only mapped environment variables are read, so unrelated variables in the
process environment never leak into the configuration.

Example YAML:

	backend:
	  url: http://printserver.lan:8000
	  timeout: 30s
	realtime:
	  url: ws://printserver.lan:8001
	  max_reconnect_attempts: 5
	polling:
	  interval: 5s
	logging:
	  level: debug
	  format: console

Environment equivalents: PRINTDECK_API_URL, PRINTDECK_WS_URL,
PRINTDECK_POLL_INTERVAL, LOG_LEVEL, LOG_FORMAT.
*/
package config
