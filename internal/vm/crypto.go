package vm

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // EOSIO requires ripemd160.
)

// K1 signatures and public keys carry a one-byte type tag; 0 is secp256k1.
const (
	keyTypeK1        = 0
	k1SignatureSize  = 66
	k1PublicKeySize  = 34
	msgHashMismatch  = "hash mismatch"
	msgKeyMismatch   = "recovered key is different from expected one"
	msgSignatureType = "unsupported signature type"
)

// Sha1 returns the SHA-1 digest of data.
func (h *Host) Sha1(data []byte) []byte {
	h.logger.Debug("sha1", "size", len(data))
	sum := sha1.Sum(data)
	return sum[:]
}

// Sha256 returns the SHA-256 digest of data.
func (h *Host) Sha256(data []byte) []byte {
	h.logger.Debug("sha256", "size", len(data))
	sum := sha256.Sum256(data)
	return sum[:]
}

// Sha512 returns the SHA-512 digest of data.
func (h *Host) Sha512(data []byte) []byte {
	h.logger.Debug("sha512", "size", len(data))
	sum := sha512.Sum512(data)
	return sum[:]
}

// Ripemd160 returns the RIPEMD-160 digest of data.
func (h *Host) Ripemd160(data []byte) []byte {
	h.logger.Debug("ripemd160", "size", len(data))
	md := ripemd160.New()
	md.Write(data)
	return md.Sum(nil)
}

func assertHash(got, want []byte) error {
	if !bytes.Equal(got, want) {
		return newError(ErrCodeHashMismatch, msgHashMismatch)
	}
	return nil
}

// AssertSha1 fails unless hash is the SHA-1 digest of data.
func (h *Host) AssertSha1(data, hash []byte) error {
	return assertHash(h.Sha1(data), hash)
}

// AssertSha256 fails unless hash is the SHA-256 digest of data.
func (h *Host) AssertSha256(data, hash []byte) error {
	return assertHash(h.Sha256(data), hash)
}

// AssertSha512 fails unless hash is the SHA-512 digest of data.
func (h *Host) AssertSha512(data, hash []byte) error {
	return assertHash(h.Sha512(data), hash)
}

// AssertRipemd160 fails unless hash is the RIPEMD-160 digest of data.
func (h *Host) AssertRipemd160(data, hash []byte) error {
	return assertHash(h.Ripemd160(data), hash)
}

// RecoverKey recovers the K1 public key that produced sig over digest.
//
// sig is a packed K1 signature: type tag, recovery header, r and s. The
// result is a packed K1 public key: type tag followed by the 33-byte
// compressed point.
func (h *Host) RecoverKey(digest, sig []byte) ([]byte, error) {
	h.logger.Debug("recover_key", "size", len(sig))
	if len(sig) < k1SignatureSize || sig[0] != keyTypeK1 {
		return nil, newError(ErrCodeInvalidArgument, msgSignatureType)
	}
	if len(digest) != 32 {
		return nil, newError(ErrCodeInvalidArgument, "digest must be 32 bytes")
	}
	pub, _, err := ecdsa.RecoverCompact(sig[1:k1SignatureSize], digest)
	if err != nil {
		return nil, newError(ErrCodeInvalidArgument, "recover_key: %v", err)
	}
	out := make([]byte, 0, k1PublicKeySize)
	out = append(out, keyTypeK1)
	return append(out, pub.SerializeCompressed()...), nil
}

// AssertRecoverKey fails unless sig over digest was produced by pub.
func (h *Host) AssertRecoverKey(digest, sig, pub []byte) error {
	h.logger.Debug("assert_recover_key")
	if len(pub) < k1PublicKeySize || pub[0] != keyTypeK1 {
		return newError(ErrCodeInvalidArgument, "unsupported public key type")
	}
	got, err := h.RecoverKey(digest, sig)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, pub[:k1PublicKeySize]) {
		return NewAssertionError(msgKeyMismatch)
	}
	return nil
}
