// Package privacy reduces identifying values before they reach logs.
package privacy

import (
	"encoding/hex"
	"net"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// AnonymizeIP truncates an address to its network prefix (/24 for IPv4, /48 for IPv6).
// Values that do not parse as an IP are replaced wholesale.
func AnonymizeIP(ip string) string {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "invalid"
	}
	if v4 := parsed.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String()
	}
	return parsed.Mask(net.CIDRMask(48, 128)).String()
}

// Digester produces short keyed digests so a value can be correlated across log
// lines without being written out.
type Digester struct {
	key []byte
}

// NewDigester builds a digester keyed with key. An empty key still yields stable
// digests but they become reversible by dictionary for low-entropy inputs.
func NewDigester(key string) *Digester {
	k := []byte(key)
	if len(k) > blake2b.Size {
		sum := blake2b.Sum256(k)
		k = sum[:]
	}
	return &Digester{key: k}
}

// Digest returns the first 8 bytes of the keyed BLAKE2b-256 of value, hex encoded.
func (d *Digester) Digest(value string) string {
	if value == "" {
		return ""
	}
	var key []byte
	if d != nil {
		key = d.key
	}
	h, err := blake2b.New256(key)
	if err != nil {
		// key length is bounded in NewDigester
		return ""
	}
	_, _ = h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil)[:8])
}
