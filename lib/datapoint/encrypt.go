// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package datapoint

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// EncryptionKeySize is the required length of the SQLite backend's
// at-rest encryption key.
const EncryptionKeySize = 32

// encryptedPayloadVersion is the version byte prepended to encrypted
// payloads. Included as additional authenticated data in the AEAD
// Seal/Open call, so tampering with the version byte causes
// authentication failure.
const encryptedPayloadVersion byte = 0x01

// encryptedPayloadOverhead is the total byte overhead per encrypted
// payload: 1 (version) + 24 (XChaCha20-Poly1305 nonce) + 16 (Poly1305
// tag).
const encryptedPayloadOverhead = 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// hkdfInfoPayload is the HKDF info prefix for per-datapoint key
// derivation. Changing it invalidates every payload encrypted under
// the old derivation path.
var hkdfInfoPayload = []byte("wttp.datapoint.enc.v1")

// derivePayloadKey derives the per-datapoint encryption key from the
// master key and the chunk's address. The same chunk always derives
// the same key, preserving the one-row-per-address shape of the store.
func derivePayloadKey(masterKey []byte, address Address) ([]byte, error) {
	info := make([]byte, len(hkdfInfoPayload)+len(address))
	copy(info, hkdfInfoPayload)
	copy(info[len(hkdfInfoPayload):], address[:])

	reader := hkdf.New(sha256.New, masterKey, nil, info)
	derived := make([]byte, EncryptionKeySize)
	if _, err := io.ReadFull(reader, derived); err != nil {
		return nil, fmt.Errorf("HKDF key derivation failed: %w", err)
	}
	return derived, nil
}

// encryptPayload encrypts a stored payload using XChaCha20-Poly1305
// under a key derived from masterKey and the chunk's address:
//
//	[Version: 1 byte (0x01)] [Nonce: 24 bytes (random)] [Ciphertext+Tag: N+16 bytes]
//
// The version byte and address are included as additional
// authenticated data, binding the ciphertext to its row and preventing
// payload swapping inside the database file.
func encryptPayload(masterKey []byte, address Address, plaintext []byte) ([]byte, error) {
	key, err := derivePayloadKey(masterKey, address)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generating random nonce: %w", err)
	}

	output := make([]byte, 1+chacha20poly1305.NonceSizeX, 1+chacha20poly1305.NonceSizeX+len(plaintext)+aead.Overhead())
	output[0] = encryptedPayloadVersion
	copy(output[1:], nonce[:])

	return aead.Seal(output, nonce[:], plaintext, buildAAD(encryptedPayloadVersion, address)), nil
}

// decryptPayload reverses encryptPayload. It verifies the version
// byte, extracts the nonce, and authenticates the ciphertext against
// the version byte and address. Fails on a wrong key, tampered
// ciphertext, or a payload copied under a different address.
func decryptPayload(masterKey []byte, address Address, blob []byte) ([]byte, error) {
	if len(blob) < encryptedPayloadOverhead {
		return nil, fmt.Errorf("encrypted payload is %d bytes, minimum is %d (version + nonce + tag)",
			len(blob), encryptedPayloadOverhead)
	}

	version := blob[0]
	if version != encryptedPayloadVersion {
		return nil, fmt.Errorf("encrypted payload version %d is not supported (expected %d)",
			version, encryptedPayloadVersion)
	}

	nonce := blob[1 : 1+chacha20poly1305.NonceSizeX]
	ciphertext := blob[1+chacha20poly1305.NonceSizeX:]

	key, err := derivePayloadKey(masterKey, address)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, buildAAD(version, address))
	if err != nil {
		return nil, fmt.Errorf("AEAD decryption failed (wrong key, tampered data, or mismatched address): %w", err)
	}
	return plaintext, nil
}

// buildAAD constructs the additional authenticated data for AEAD
// operations: the version byte followed by the chunk address.
func buildAAD(version byte, address Address) []byte {
	aad := make([]byte, 1+len(address))
	aad[0] = version
	copy(aad[1:], address[:])
	return aad
}
