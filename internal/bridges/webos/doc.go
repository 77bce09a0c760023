// Package webos implements the control channel for LG webOS televisions.
//
// The TV exposes a JSON-over-WebSocket protocol (SSAP). Commands are
// request/response pairs correlated by a numeric id:
//
//	→ {"type":"register","id":1,"payload":{"client-key":...}}
//	← {"type":"response","id":1,"payload":{"pairingType":"PROMPT"}}
//	← {"type":"registered","id":1,"payload":{"client-key":"..."}}
//	→ {"type":"request","id":2,"uri":"ssap://system.launcher/launch",...}
//
// First-time connections trigger an on-screen prompt; the client key
// handed back on approval is kept in the channel config so subsequent
// connects skip the prompt. TVs present self-signed certificates, so
// certificate verification is disabled for the TLS dial.
//
// The channel registers the full webOS capability surface and serves as
// the high-priority provider for every family it covers.
package webos
