package onion

import (
	"fmt"
	"strconv"

	"github.com/flashbots/onionnet/crypto"
)

const (
	// AddressWidth is the number of ASCII digits of the next-hop field.
	AddressWidth = 10

	// MaxAddress is the largest address that fits in AddressWidth digits.
	MaxAddress Address = 9_999_999_999
)

// Address identifies an endpoint (relay or user) that a transport can resolve.
type Address uint64

// String returns the decimal form of the address.
func (a Address) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// EncodeAddress renders a as AddressWidth left zero-padded ASCII digits.
func EncodeAddress(a Address) ([]byte, error) {
	if a > MaxAddress {
		return nil, fmt.Errorf("%w: %d", ErrEncodingOverflow, a)
	}
	return fmt.Appendf(nil, "%0*d", AddressWidth, uint64(a)), nil
}

// ParseAddress decodes an AddressWidth digit field.
func ParseAddress(field []byte) (Address, error) {
	if len(field) != AddressWidth {
		return 0, fmt.Errorf("%w: address field is %d bytes, want %d", crypto.ErrMalformedInput, len(field), AddressWidth)
	}
	for _, c := range field {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: non-digit in address field", crypto.ErrMalformedInput)
		}
	}
	v, err := strconv.ParseUint(string(field), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", crypto.ErrMalformedInput, err)
	}
	return Address(v), nil
}

// Addressing maps relay identifiers to addresses and tells relay endpoints from
// user endpoints.
type Addressing interface {
	RelayAddress(id int) (Address, error)
	UserAddress(id int) (Address, error)
	IsUserAddress(a Address) bool
}

// DefaultPortSpan is how many ids each PortLayout range holds.
const DefaultPortSpan = 1000

// PortLayout addresses relays and users by TCP port: relay N listens on
// BaseRelayPort+N and user M on BaseUserPort+M.
type PortLayout struct {
	BaseRelayPort int `yaml:"base_relay" json:"base_relay"`
	BaseUserPort  int `yaml:"base_user" json:"base_user"`
	Span          int `yaml:"span" json:"span"`
}

// DefaultPortLayout matches the reference deployment ports.
var DefaultPortLayout = PortLayout{
	BaseRelayPort: 4000,
	BaseUserPort:  3000,
	Span:          DefaultPortSpan,
}

func (p PortLayout) span() int {
	if p.Span <= 0 {
		return DefaultPortSpan
	}
	return p.Span
}

func (p PortLayout) address(base, id int) (Address, error) {
	if id < 0 || id >= p.span() {
		return 0, fmt.Errorf("%w: id %d outside [0, %d)", ErrEncodingOverflow, id, p.span())
	}
	a := Address(base + id)
	if a > MaxAddress {
		return 0, fmt.Errorf("%w: %d", ErrEncodingOverflow, a)
	}
	return a, nil
}

// RelayAddress returns the address of relay id.
func (p PortLayout) RelayAddress(id int) (Address, error) {
	return p.address(p.BaseRelayPort, id)
}

// UserAddress returns the address of user id.
func (p PortLayout) UserAddress(id int) (Address, error) {
	return p.address(p.BaseUserPort, id)
}

// IsUserAddress reports whether a falls in the user range.
func (p PortLayout) IsUserAddress(a Address) bool {
	return int(a) >= p.BaseUserPort && int(a) < p.BaseUserPort+p.span()
}
