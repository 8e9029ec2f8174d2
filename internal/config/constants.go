package config

// Application constants
const (
	AppName    = "bmorphcli"
	AppVersion = "1.2.0"

	// Configuration file sections
	SectionSiteInfo = "siteinfo"
	SectionBmorph   = "bmorph"
	SectionIO       = "io"
	SectionLogging  = "logging"

	// Environment prefix for logging overrides (BMORPH_LOG_LEVEL, ...)
	EnvPrefix = "BMORPH_LOG"
)
