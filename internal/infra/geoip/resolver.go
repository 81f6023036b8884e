package geoip

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable means no GeoIP database is loaded.
var ErrUnavailable = errors.New("geoip: no database loaded")

// Resolver maps client addresses to the sign-up country stored on new
// accounts. It is only consulted when the edge did not send a country header.
type Resolver struct {
	reader *geoip2.Reader
}

// NewResolver opens the MaxMind country database at path. An empty path
// disables lookups and yields a nil *Resolver, which is safe to use.
func NewResolver(path string) (*Resolver, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open %s: %w", path, err)
	}
	return &Resolver{reader: reader}, nil
}

// CountryCode returns the upper-case ISO code for addr, which may carry a
// port. Loopback, private and link-local addresses resolve to "" without
// consulting the database.
func (r *Resolver) CountryCode(addr string) (string, error) {
	ip, err := parseAddr(addr)
	if err != nil {
		return "", err
	}
	if !routable(ip) {
		return "", nil
	}
	if r == nil || r.reader == nil {
		return "", ErrUnavailable
	}
	record, err := r.reader.Country(ip.AsSlice())
	if err != nil {
		return "", fmt.Errorf("geoip: lookup %s: %w", ip, err)
	}
	return strings.ToUpper(record.Country.IsoCode), nil
}

// Close releases the database. Calling it on a nil Resolver is a no-op.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}

func parseAddr(addr string) (netip.Addr, error) {
	addr = strings.TrimSpace(addr)
	if ap, err := netip.ParseAddrPort(addr); err == nil {
		return ap.Addr().Unmap(), nil
	}
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("geoip: invalid address %q", addr)
	}
	return ip.Unmap(), nil
}

func routable(ip netip.Addr) bool {
	return ip.IsGlobalUnicast() && !ip.IsPrivate()
}
