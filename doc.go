// Package imagehoster is an image sharing service.
//
// Features:
// - Upload images with comma separated tags
// - Tags are shared records, created on first use
// - Only the owner of an image can edit or delete it
// - Comments on images
// - Popular images by view count
// - Redis or SQLite storage
//
// Example usage:
//   go run . -config config/config.json
//
// Configuration:
//   See config/config.json; every field can be overridden with an
//   IMAGEHOSTER_* environment variable (e.g. IMAGEHOSTER_STORE=sqlite).
//
// API Documentation:
//   All endpoints are documented in the internal/api/handler.go file
package main
