// Package static serves the embedded web client.
//
// Three assets are compiled into the binary and served with fixed MIME
// types. Paths match exactly; there is no directory listing and no
// filesystem access at runtime.
package static
