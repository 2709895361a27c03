package service

import "github.com/aussiebroadwan/nopass/pkg/cryptox"

const (
	// HexCodeBytes of randomness back a default code, giving 64 hex chars.
	HexCodeBytes = 32

	// NumericCodeDigits is the numeric code length. 10^78 > 2^256, so the
	// smaller alphabet keeps at least the default code's entropy.
	NumericCodeDigits = 78
)

// GenerateCode returns a fresh login code in the requested format.
func GenerateCode(numeric bool) (string, error) {
	if numeric {
		return cryptox.GenerateNumericCode(NumericCodeDigits)
	}
	return cryptox.GenerateHexCode(HexCodeBytes)
}
