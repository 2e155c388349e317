// Package signature verifies device-bound RSA signatures and computes
// content hashes for the audit trail.
package signature

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
)

// VerifyFunc is the signature capability the attendance engine depends
// on. Production uses Verify; tests substitute a deterministic fake.
type VerifyFunc func(publicKeyPEM, data, signatureB64 string) bool

// ParsePublicKey parses a PEM-encoded RSA public key. Both PKIX
// ("PUBLIC KEY") and PKCS#1 ("RSA PUBLIC KEY") encodings are accepted
// since devices in the field send either.
func ParsePublicKey(publicKeyPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, errors.New("no PEM block found in public key")
	}

	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("public key is not RSA")
		}
		return rsaKey, nil
	}

	rsaKey, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, errors.New("failed to parse RSA public key")
	}
	return rsaKey, nil
}

// Verify checks an RSA PKCS#1 v1.5 SHA-256 signature over data.
// It never errors; any parse or verification failure is false.
func Verify(publicKeyPEM, data, signatureB64 string) bool {
	key, err := ParsePublicKey(publicKeyPEM)
	if err != nil {
		return false
	}

	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return false
	}

	digest := sha256.Sum256([]byte(data))
	return rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], sig) == nil
}

// ContentHash returns the hex SHA-256 of the canonical JSON encoding
// of v. Audit entries use it to make tampering detectable.
func ContentHash(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
