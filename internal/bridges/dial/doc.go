// Package dial implements the control channel for DIAL-capable devices
// (DIscovery And Launch). DIAL is a plain HTTP protocol: apps are
// launched with a POST to the device's application URL and stopped with
// a DELETE on the instance URL the launch returns.
//
// DIAL endpoints keep no session with the controller, so the channel is
// not connectable and needs no pairing. On a device that also exposes a
// richer protocol the DIAL channel acts as the lower-priority fallback
// for app launching.
package dial
