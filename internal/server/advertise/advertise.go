package advertise

import (
	"context"
	"errors"
	"net"
	"strconv"

	sockaddr "github.com/hashicorp/go-sockaddr"

	"github.com/camlink/camlink-go/internal/core/domain"
	"github.com/camlink/camlink-go/internal/hostbus"
)

// FallbackHost is advertised when no LAN address can be found.
const FallbackHost = "localhost"

// ErrNoAddress is returned when no usable IPv4 address exists.
var ErrNoAddress = errors.New("advertise: no non-loopback IPv4 address")

// Resolver returns the host's primary LAN IPv4 address.
type Resolver func() (net.IP, error)

// StreamURL returns https://{ip}:{port}, using FallbackHost when resolve
// fails or yields something other than an IPv4 address.
func StreamURL(port int, resolve Resolver) string {
	host := FallbackHost
	if resolve != nil {
		if ip, err := resolve(); err == nil {
			if v4 := ip.To4(); v4 != nil && !v4.IsLoopback() && !v4.IsUnspecified() {
				host = v4.String()
			}
		}
	}
	return "https://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// GetStreamURL returns the URL for the fixed streaming port.
func GetStreamURL() string {
	return StreamURL(domain.StreamPort, PrimaryIPv4)
}

// PrimaryIPv4 asks go-sockaddr for the private address on the default
// route first, then falls back to the first IPv4 address on an interface
// that is up and not a loopback.
func PrimaryIPv4() (net.IP, error) {
	if s, err := sockaddr.GetPrivateIP(); err == nil && s != "" {
		if ip := net.ParseIP(s).To4(); ip != nil {
			return ip, nil
		}
	}
	return scanInterfaces(net.Interfaces)
}

type interfaceLister func() ([]net.Interface, error)

func scanInterfaces(list interfaceLister) (net.IP, error) {
	ifaces, err := list()
	if err != nil {
		return nil, err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		if ip := firstIPv4(addrs); ip != nil {
			return ip, nil
		}
	}
	return nil, ErrNoAddress
}

func firstIPv4(addrs []net.Addr) net.IP {
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if v4 := ip.To4(); v4 != nil && !v4.IsLoopback() && !v4.IsLinkLocalUnicast() {
			return v4
		}
	}
	return nil
}

// Register adds the get_stream_url command to cmds.
func Register(cmds *hostbus.Commands) {
	RegisterWith(cmds, domain.StreamPort, PrimaryIPv4)
}

// RegisterWith adds get_stream_url backed by a custom port and resolver.
// The address is resolved on every call so a network change shows up the
// next time the host asks.
func RegisterWith(cmds *hostbus.Commands, port int, resolve Resolver) {
	cmds.Register(domain.CommandGetStreamURL, func(context.Context) (any, error) {
		return StreamURL(port, resolve), nil
	})
}
