// Package api implements the scorecard HTTP API.
//
// Endpoints:
//
//	GET  /api/v1/view           build (cache allowed) and render the full view
//	POST /api/v1/refresh        rebuild bypassing the cache, render, broadcast
//	GET  /api/v1/sections       section ids, titles and status
//	GET  /api/v1/sections/{id}  one rendered section
//	GET  /api/v1/health         per-sheet availability and failed section count
//	GET  /metrics               Prometheus text exposition of a fresh build
//	GET  /ws/stream             WebSocket stream, when a hub is configured
//
// All /api/v1 responses are Content-Type: application/json. Errors are
// {"error": "..."}. When auth mode is apikey, /api/v1 requires the key header.
package api
