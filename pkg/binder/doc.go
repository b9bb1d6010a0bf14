// Package binder decodes HTTP request data into Go structs for the typed
// handlers in package handler.
//
// JSON reads a size-limited body and decodes it with encoding/json; Query
// fills a struct from URL query parameters using `query` tags. Both return
// errors wrapping package sentinels so the error handler can map them to 400
// or 415 responses.
package binder
