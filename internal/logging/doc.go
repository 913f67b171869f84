// Package logging provides structured logging with per-module levels.
//
// Records go to stdout when it is connected, to the systemd journal when
// journald is reachable, and always to an in-memory ring buffer that backs
// the /api/logs endpoint.
//
// Initialize once at startup and again whenever the configuration reloads:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"launchpad": "debug",
//			"wm":        "warn",
//		},
//	})
//
// Each package asks for its own logger:
//
//	logger := logging.GetLogger("launchpad")
//	logger.Info("device opened", "port", name)
//
// Journal entries carry SYSLOG_IDENTIFIER=padnode and upper-cased
// attribute fields:
//
//	journalctl -t padnode -f
//	journalctl -t padnode MODULE=wm
//
// The matching TOML section:
//
//	[logging]
//	level = "info"
//	format = "text"
//	launchpad = "debug"
package logging
