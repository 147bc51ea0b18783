// Package http implements the REST transport of the sync server.
//
// Devices register themselves, submit batches of queued actions, report
// checkpoints and resolve conflicts through the routes wired in
// [Handler.Init]. Tracing, access logging, gzip, device identification and
// the batch integrity check are middleware in this package; everything else
// is delegated to the service layer.
package http
