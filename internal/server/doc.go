// Package server implements the real-time side of the tracker: a hub that
// owns WebSocket clients and their project groups, the general and project
// room consumers, channel layers for single and multi instance fan-out, and
// the HTTP server that mounts the REST API next to the socket endpoints.
package server
