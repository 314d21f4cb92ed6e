package tor

import (
	"encoding/base32"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Onion address constants.
const (
	// OnionV3Length is the length of a v3 address label.
	OnionV3Length = 56
	// OnionV3Version is the version byte of v3 addresses.
	OnionV3Version = 0x03
	// OnionSuffix is the top-level domain of hidden services.
	OnionSuffix = ".onion"
)

var (
	onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)
	onionV2Pattern = regexp.MustCompile(`^[a-z2-7]{16}\.onion$`)

	checksumPrefix = []byte(".onion checksum")
)

// IsValidV3Address reports whether address is a v3 onion address with a
// correct checksum and version.
func IsValidV3Address(address string) bool {
	address = strings.ToLower(address)
	if !onionV3Pattern.MatchString(address) {
		return false
	}

	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(strings.TrimSuffix(address, OnionSuffix)))
	if err != nil || len(decoded) != 35 {
		return false
	}

	// pubkey (32) || checksum (2) || version (1)
	pubkey, checksum, version := decoded[:32], decoded[32:34], decoded[34]
	if version != OnionV3Version {
		return false
	}
	want := v3Checksum(pubkey, version)
	return checksum[0] == want[0] && checksum[1] == want[1]
}

// v3Checksum is the first two bytes of SHA3-256(".onion checksum" || pubkey || version).
func v3Checksum(pubkey []byte, version byte) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)
	sum := sha3.Sum256(data)
	return sum[:2]
}

// IsV2Address reports whether address has the retired v2 format.
func IsV2Address(address string) bool {
	return onionV2Pattern.MatchString(strings.ToLower(address))
}

// ValidateHost checks an onion host name. Subdomains such as
// "www.<address>.onion" are validated on their service address.
func ValidateHost(host string) error {
	host = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(host), "."))
	if !strings.HasSuffix(host, OnionSuffix) {
		return ErrInvalidOnionAddress
	}
	labels := strings.Split(strings.TrimSuffix(host, OnionSuffix), ".")
	service := labels[len(labels)-1] + OnionSuffix

	if IsValidV3Address(service) {
		return nil
	}
	if IsV2Address(service) {
		return ErrV2AddressDeprecated
	}
	return ErrInvalidOnionAddress
}

// ComputeV3Address derives the v3 onion address of an ed25519 public key.
func ComputeV3Address(pubkey []byte) (string, error) {
	if len(pubkey) != 32 {
		return "", ErrInvalidOnionAddress
	}
	data := make([]byte, 35)
	copy(data[:32], pubkey)
	copy(data[32:34], v3Checksum(pubkey, OnionV3Version))
	data[34] = OnionV3Version
	return strings.ToLower(base32.StdEncoding.EncodeToString(data)) + OnionSuffix, nil
}
