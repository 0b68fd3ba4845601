package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"lukechampine.com/blake3"
)

type HashAlgo string

const (
	HashAlgoSHA256 HashAlgo = "sha256"
	HashAlgoBLAKE3 HashAlgo = "blake3"
)

// ParseHashAlgo maps a case-insensitive name to a supported algorithm.
func ParseHashAlgo(name string) (HashAlgo, error) {
	switch HashAlgo(strings.ToLower(strings.TrimSpace(name))) {
	case HashAlgoSHA256:
		return HashAlgoSHA256, nil
	case HashAlgoBLAKE3:
		return HashAlgoBLAKE3, nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", name)
	}
}

// HashBytes returns the hash of bytes as a hex string using the specified algorithm.
// Supported algorithms: "sha256" and "blake3".
func HashBytes(data []byte, algo HashAlgo) (string, error) {
	switch algo {
	case HashAlgoSHA256:
		return hashBytesSha256(data), nil
	case HashAlgoBLAKE3:
		return hashBytesBlake3(data), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
}

func hashBytesSha256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func hashBytesBlake3(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}
