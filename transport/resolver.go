package transport

import (
	"fmt"
	"strings"

	"github.com/flashbots/onionnet/onion"
)

// Resolver maps an address to the base URL of the endpoint listening on it.
type Resolver interface {
	Resolve(to onion.Address) (string, error)
}

// HostResolver treats the address as a TCP port on Host.
type HostResolver struct {
	// Scheme defaults to http.
	Scheme string
	Host   string
}

// Resolve returns scheme://host:address.
func (r HostResolver) Resolve(to onion.Address) (string, error) {
	if to == 0 || to > 65535 {
		return "", fmt.Errorf("address %s is not a TCP port", to)
	}
	scheme := r.Scheme
	if scheme == "" {
		scheme = "http"
	}
	host := r.Host
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, uint64(to)), nil
}

// StaticResolver resolves from a fixed table.
type StaticResolver map[onion.Address]string

// Resolve looks the address up in the table.
func (r StaticResolver) Resolve(to onion.Address) (string, error) {
	url, ok := r[to]
	if !ok {
		return "", fmt.Errorf("no endpoint for address %s", to)
	}
	return strings.TrimRight(url, "/"), nil
}
