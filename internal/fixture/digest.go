package fixture

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/irrlab/phigold/internal/codec"
)

// DomainFixture is the domain prefix for fixture content digests.
// Version suffix enables future algorithm migration.
const DomainFixture = "phigold/fixture/v1"

// digestWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func digestWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest computes the content digest of raw document bytes.
// The digest is stable across restarts given the same bytes.
func Digest(data []byte) string {
	return digestWithDomain(DomainFixture, data)
}

// DigestValue computes the content digest of a value's document bytes.
// Because the codec is deterministic, equal values digest equally; this
// is what makes fixture entries content-addressed.
// Returns an error if the value cannot be encoded.
func DigestValue(v any, opts ...codec.Option) (string, error) {
	data, err := codec.Marshal(v, opts...)
	if err != nil {
		return "", err
	}
	return Digest(data), nil
}

// MustDigestValue is like DigestValue but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDigestValue(v any, opts ...codec.Option) string {
	digest, err := DigestValue(v, opts...)
	if err != nil {
		panic(err)
	}
	return digest
}
