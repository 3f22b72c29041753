// Package tracker provides an HTTP client for the tracker's side-channel API.
//
// # Overview
//
// The live session runs over Socket.IO (see package session); this package
// covers the plain HTTP endpoints the tracker serves next to it:
//
//   - GET /api/status: connected client and peer counters, server time
//   - GET /api/peers: participant snapshot, same shape as peers_updated
//   - GET /api/torrents: resource snapshot, same shape as torrents_list
//   - GET /health: liveness probe
//   - POST /upload-torrent: multipart upload, file field "torrent"
//
// Snapshot endpoints are decoded with wire.Decode, so missing fields get the
// same defaults as on the live session and are reported through a
// *wire.MalformedEventError next to a usable value.
//
// # Uploads
//
// Upload rejects an empty path, a missing or non-regular file, and a file
// whose extension does not match the configured one (".torrent" unless
// overridden) before any request is made. Every failure is an *UploadError;
// when the tracker answers success=false its error text is in Reason.
//
// # Request Handling
//
// All requests carry Accept: application/json and a vmpeer User-Agent.
// Reads time out after five seconds; uploads get a minute.
package tracker
