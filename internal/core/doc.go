// Package core implements the connection and room bookkeeping of the
// relay: one Client per live WebSocket, a Registry mapping room keys to
// member sets, and a Router classifying inbound frames into the chat
// (persist then broadcast) and signaling (broadcast only) paths.
//
// Usernames arrive in the frame payload and are trusted as-is; nothing
// here checks them against the connection's session. Known gap.
package core
