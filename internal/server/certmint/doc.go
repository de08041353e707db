// Package certmint generates the ephemeral TLS identity of the streaming
// endpoint.
//
// Every start mints a new ECDSA P-256 key and a self-signed certificate
// valid for localhost, 127.0.0.1 and 0.0.0.0. Nothing is written to disk;
// browsers on the LAN accept it through the usual certificate warning,
// which is why the SHA-256 fingerprint is logged at startup.
package certmint
