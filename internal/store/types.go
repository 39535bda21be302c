package store

import "encoding/json"

// ChangeKind identifies a streamed mutation.
type ChangeKind string

const (
	// ChangePut is a full replace of the value at Path. The first event on
	// a fresh stream is always a put of the whole subscribed node.
	ChangePut ChangeKind = "put"
	// ChangePatch is a partial merge into the value at Path.
	ChangePatch ChangeKind = "patch"
)

// Change is one streamed mutation notification. Path is relative to the
// subscribed node ("" or "/" means the node root).
type Change struct {
	Kind ChangeKind      `json:"kind"`
	Path string          `json:"path"`
	Data json.RawMessage `json:"data"`
}

// PostResult is the response body of a log append.
type PostResult struct {
	Name string `json:"name"` // generated key
}
