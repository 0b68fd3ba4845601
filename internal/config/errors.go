package config

import "errors"

// Sentinels wrapped by WithConfigFile and Build; match them with errors.Is.
var (
	ErrFileDoesNotExist  = errors.New("soundfetch: config file does not exist")
	ErrReadConfigFail    = errors.New("soundfetch: cannot read config file")
	ErrConfigParsingFail = errors.New("soundfetch: cannot parse config file")
	ErrInvalidConfig     = errors.New("soundfetch: invalid configuration")
)
