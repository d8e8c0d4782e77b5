package service

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"systempay-gateway/internal/core/domain"
)

// Digest algorithms accepted by the gateway contract.
const (
	AlgorithmSHA1       = "sha1"
	AlgorithmHMACSHA256 = "hmac-sha256"
)

// DigestSignatureService implements ports.SignatureEngine over the
// gateway's canonical signing sequence: the values of every vads_ field
// in ascending field-name order, joined with "+", with the shared
// certificate appended as the final element.
type DigestSignatureService struct {
	certificate string
	algorithm   string
}

// NewDigestSignatureService creates a signature engine bound to one
// certificate. algorithm is AlgorithmSHA1 (legacy contract) or
// AlgorithmHMACSHA256.
func NewDigestSignatureService(certificate, algorithm string) *DigestSignatureService {
	return &DigestSignatureService{
		certificate: certificate,
		algorithm:   algorithm,
	}
}

// Sign computes the lowercase hex digest over the field set. An empty
// field set still signs: the payload degenerates to the certificate alone.
func (s *DigestSignatureService) Sign(fs domain.FieldSet) string {
	joined := strings.Join(fs.SigningValues(), "+")

	if s.algorithm == AlgorithmHMACSHA256 {
		mac := hmac.New(sha256.New, []byte(s.certificate))
		mac.Write([]byte(joined))
		return hex.EncodeToString(mac.Sum(nil))
	}

	// Legacy contract: SHA-1 over the joined values with the certificate
	// appended as a trailing "+certificate" element.
	sum := sha1.Sum([]byte(joined + "+" + s.certificate))
	return hex.EncodeToString(sum[:])
}

// Verify checks a claimed signature against the recomputed digest.
// The comparison is exact: the gateway emits lowercase hex, so any
// deviation in a single character, case included, rejects. Uses
// constant-time comparison to prevent timing attacks.
func (s *DigestSignatureService) Verify(fs domain.FieldSet, claimed string) bool {
	expected := s.Sign(fs)
	return hmac.Equal([]byte(expected), []byte(claimed))
}
