package web

import (
	"errors"
	"net"
	"strings"
)

var errNoAddress = errors.New("no non-loopback IPv4 address")

// LocalIPv4 returns the first IPv4 address of an interface that is up and not
// a loopback.
func LocalIPv4() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		if ip := firstIPv4(addrs); ip != "" {
			return ip, nil
		}
	}
	return "", errNoAddress
}

func firstIPv4(addrs []net.Addr) string {
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip4 := ip.To4(); ip4 != nil && !ip4.IsLoopback() {
			return ip4.String()
		}
	}
	return ""
}

// BaseURL is the address clients should use to reach the API: PublicURL when
// set, otherwise http://<host>[:port] built from ListenAddr with host
// substituting an empty or wildcard listen host.
func (c ServerConfig) BaseURL(host string) string {
	if c.PublicURL != "" {
		return strings.TrimSuffix(c.PublicURL, "/")
	}
	h, port, err := net.SplitHostPort(c.ListenAddr)
	if err != nil {
		h, port = c.ListenAddr, ""
	}
	if h == "" || h == "0.0.0.0" || h == "::" {
		h = host
	}
	if h == "" {
		h = "127.0.0.1"
	}
	if port == "" || port == "80" {
		return "http://" + h
	}
	return "http://" + net.JoinHostPort(h, port)
}
