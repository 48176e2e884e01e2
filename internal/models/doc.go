// Package models holds the shared domain types exchanged between the backend
// client, the session controller, the upload pipeline, and the view layer.
//
// All types are plain value structs with JSON tags matching the backend's
// response fields. Client-side search helpers ([Message.Matches],
// [ChatSession.Matches]) implement the case-insensitive filtering used by the
// chat and history views.
package models
