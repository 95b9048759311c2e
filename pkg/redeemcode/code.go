// Package redeemcode mints the short human-readable codes customers show at
// the till when using a voucher.
package redeemcode

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	Prefix  = "VR-"
	Length  = 8
	Charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var pattern = regexp.MustCompile(`^VR-[A-Z0-9]{8}$`)

// New returns a fresh code such as "VR-7Q2K9ZDA".
func New() (string, error) {
	buf := make([]byte, 0, len(Prefix)+Length)
	buf = append(buf, Prefix...)
	max := big.NewInt(int64(len(Charset)))
	for i := 0; i < Length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf = append(buf, Charset[n.Int64()])
	}
	return string(buf), nil
}

// Valid reports whether s has the shape of a redemption code.
func Valid(s string) bool {
	return pattern.MatchString(s)
}
