package tor

import "errors"

// Tor connectivity errors.
// They are returned by Client.CheckConnection (through ProxyStatus.Err) and
// by the constructors, before any page of an analysis is requested. Callers
// match them with errors.Is to tell a stopped daemon from a wrong port.
var (
	// ErrProxyNotTor is returned when the proxy answers but does not speak
	// unauthenticated SOCKS5. This usually means --external-tor points at an
	// HTTP proxy or at another service listening on the expected port.
	ErrProxyNotTor = errors.New("proxy is not a Tor SOCKS5 proxy")

	// ErrProxyCannotConnect is returned when no TCP connection to the proxy
	// can be established. Tor is not running or the address is wrong.
	ErrProxyCannotConnect = errors.New("cannot connect to Tor proxy")

	// ErrProxyTimeout is returned when the proxy check times out.
	// The daemon may still be bootstrapping or the network is slow.
	ErrProxyTimeout = errors.New("timeout connecting to Tor proxy")

	// ErrInvalidProxyAddress is returned for proxy addresses that are not
	// host:port, such as a bare port or a URL with a scheme.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrNotRunning is returned when a client is requested from an embedded
	// daemon that was never started or has been stopped.
	ErrNotRunning = errors.New("embedded Tor daemon is not running")

	// ErrInvalidOnionAddress is returned for malformed onion hosts: wrong
	// length, characters outside base32, a bad checksum or an unknown version.
	// Targets are rejected with it before Tor is started.
	ErrInvalidOnionAddress = errors.New("invalid onion address")

	// ErrV2AddressDeprecated is returned for v2 onion hosts, which no longer resolve.
	ErrV2AddressDeprecated = errors.New("v2 onion addresses are deprecated and no longer functional")
)

// ProxyStatus is the outcome of a proxy check.
// The CLI prints it while Tor starts and converts it to an error with Err
// when the check fails.
type ProxyStatus int

const (
	// ProxyStatusOK indicates a working SOCKS5 proxy.
	ProxyStatusOK ProxyStatus = iota
	// ProxyStatusWrongType indicates that the connection succeeded but the
	// handshake reply was not a SOCKS5 one.
	ProxyStatusWrongType
	// ProxyStatusCannotConnect indicates the proxy could not be reached.
	// Tor may not be running or the address may be wrong.
	ProxyStatusCannotConnect
	// ProxyStatusTimeout indicates the check timed out before the handshake
	// completed.
	ProxyStatusTimeout
)

// String returns a human-readable description of the proxy status.
func (s ProxyStatus) String() string {
	switch s {
	case ProxyStatusOK:
		return "OK"
	case ProxyStatusWrongType:
		return "wrong type (not Tor)"
	case ProxyStatusCannotConnect:
		return "cannot connect"
	case ProxyStatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Err returns the sentinel error for this status, or nil if OK.
func (s ProxyStatus) Err() error {
	switch s {
	case ProxyStatusOK:
		return nil
	case ProxyStatusWrongType:
		return ErrProxyNotTor
	case ProxyStatusCannotConnect:
		return ErrProxyCannotConnect
	case ProxyStatusTimeout:
		return ErrProxyTimeout
	default:
		return errors.New("unknown proxy status")
	}
}
