// Package exposition renders a snapshot as Prometheus text exposition so the
// scorecard can be scraped and graphed next to other telemetry.
package exposition
