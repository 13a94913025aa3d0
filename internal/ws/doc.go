// Package ws implements the WebSocket hub that pushes rendered scorecard views
// to connected dashboards.
//
// The hub handles GET /ws/stream and upgrades the connection. It sends the
// current view on connect and every view handed to Publish afterwards, which
// is how manual refreshes reach open dashboards. When an interval is set, Run
// also rebuilds and publishes on that period.
//
// Message format:
//
//	{"event": "view", "data": { ...view.Model... }}
//
// Clients that cannot keep up (send buffer full) are disconnected.
package ws
