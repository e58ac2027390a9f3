// Package bridge owns the client side of the LX200 gateway.
//
// Ownership boundary:
// - TCP accept and admission (one client at a time)
//
// - per-connection framing, probe answer, idle timeout
//
// - command dispatch: local answers, no-response commands, quirk rules
//
// - idle-time duties: peer address discovery, reset line polling
//
// Connection lifecycle:
// - accept -> waiting_colon <-> accumulating -> dispatch -> waiting_colon
//
// - disconnect or idle timeout -> accept
//
// Bridge does not own the serial link protocol; see package mount.
package bridge
