// Package tlsroots decides how clients trust a camlink server.
//
// The server mints a fresh self-signed certificate at every start, so there
// is no CA to distribute. Clients pick one of three modes:
//
//   - fingerprint pin: accept only a leaf whose SHA-256 matches
//   - CA file: trust a saved copy of the certificate (PEM)
//   - insecure: accept any certificate (development default)
package tlsroots
