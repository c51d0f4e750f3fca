// Package forum provides the type-safe Go definitions and wire schema for
// the Openfloor Q&A forum. Questions and answers are the fundamental units
// of state: visitors post questions, anyone may answer, and an admin triages
// question status (Pending, Answered, Escalated).
//
// The package holds everything both sides of the wire agree on:
//
//   - Question, Answer and their JSON field names, which follow the forum
//     REST service exactly (questionid, answerid, Status, created_at)
//   - Event, the tagged union carried over the realtime push channel
//   - the display ordering policy (escalated questions first, then recency)
//
// Consumers that keep local state converged with the service live in
// internal/snapshot, internal/sync and internal/push; the reference service
// itself lives in internal/server.
package forum
