// Package websocket pushes server events to dashboard clients.
//
// A single Hub owns the set of connected clients. Handler upgrades GET /ws
// requests with gorilla/websocket, registers a Client for the connection and
// starts its read and write pumps. Services publish through Hub.Broadcast,
// which never blocks: a full broadcast queue drops the message and a client
// whose own queue is full is disconnected.
//
// Every message is a JSON envelope:
//
//	{"type": "dataset:reloaded", "data": {...}, "timestamp": "2025-03-01T10:00:00Z"}
//
// A client receives a "connection" message right after it registers.
package websocket
