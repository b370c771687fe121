// Package config defines the plantalert settings and provides helpers to
// load and validate them from a YAML file.
//
// The Config type groups settings by concern: location, thresholds,
// notifications, timing, database and logging. Defaults match the original
// deployment (48 h horizon, 3 °C vigilance, 0 °C freeze, 6 h change floor).
package config
