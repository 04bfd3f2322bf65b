// Package server exposes the repository copier over HTTP.
//
// Routes are served by a chi router wrapped in CORS, request-id, real-ip,
// request logging and panic recovery middleware. Copies run detached from the
// client connection so a dropped request does not interrupt a push.
package server
