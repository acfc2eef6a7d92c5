package pinata

import "strings"

// ContentAddress is a stored metadata/image reference. Three schemes exist:
//
//	ipfs://<cid>   pinned, durable, globally resolvable through a gateway
//	data:...       inline-encoded document, degraded mode (JSON only)
//	local://<cid>  ephemeral local reference, degraded mode (binary only)
//
// Degraded addresses are valid non-error results but are not durable across
// sessions; callers tell them apart by scheme.
type ContentAddress string

const (
	SchemeIPFS  = "ipfs://"
	SchemeData  = "data:"
	SchemeLocal = "local://"
)

// DefaultGatewayBase is the public gateway the web client uses.
const DefaultGatewayBase = "https://gateway.pinata.cloud/ipfs/"

func (a ContentAddress) String() string { return string(a) }

// Pinned reports whether the address is content-addressed and durable.
func (a ContentAddress) Pinned() bool {
	return strings.HasPrefix(string(a), SchemeIPFS)
}

// CID returns the bare content identifier for pinned addresses, "" otherwise.
func (a ContentAddress) CID() string {
	if !a.Pinned() {
		return ""
	}
	return strings.TrimPrefix(string(a), SchemeIPFS)
}

// GatewayURL rewrites a pinned address into a fetchable HTTP URL on the
// given gateway (DefaultGatewayBase when empty). Inline and local addresses
// pass through unchanged.
func (a ContentAddress) GatewayURL(gatewayBase string) string {
	if !a.Pinned() {
		return string(a)
	}
	if gatewayBase == "" {
		gatewayBase = DefaultGatewayBase
	}
	return gatewayBase + a.CID()
}
