// Package weather fetches the hourly temperature forecast from Open-Meteo
// and turns it into temperature samples flagged against the configured
// threshold bands.
//
// HTTP calls go through a small resilience layer: retries with exponential
// backoff for transient failures and a circuit breaker that fails fast when
// the provider is down.
package weather
