// Package main provides the entry point for camlink-cli.
//
// Usage:
//
//	camlink-cli url
//	camlink-cli -o json cert
//	camlink-cli --fingerprint AB:CD:... send --host 192.168.1.42 --fps 15 frame1.jpg frame2.jpg
//	camlink-cli probe --host 192.168.1.42
//	camlink-cli health --addr http://127.0.0.1:9104
package main
