// Package view renders a snapshot into the render-ready model consumed by the
// dashboard front end.
//
// Render is pure: the same Snapshot always yields the same Model. Metrics in
// percent become gauges with a fill fraction clamped to [0, 1], other metrics
// become stat tiles, performance rows become score-vs-target bars and series
// become trend lines labelled month/day. A failed section renders an inline
// error banner in place of its content. hints.go derives diagnostic hints.
package view
