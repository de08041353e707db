// Package advertise computes the URL a phone should open to reach the
// streaming endpoint, and exposes it as the get_stream_url host command.
package advertise
