// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package datapoint

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func testEncryptionKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, EncryptionKeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return key
}

func TestEncryptPayloadRoundTrip(t *testing.T) {
	key := testEncryptionKey(t)
	plaintext := []byte("confidential chunk contents")
	address := ComputeAddress(plaintext)

	blob, err := encryptPayload(key, address, plaintext)
	if err != nil {
		t.Fatalf("encryptPayload: %v", err)
	}
	if len(blob) != len(plaintext)+encryptedPayloadOverhead {
		t.Errorf("blob length = %d, want %d", len(blob), len(plaintext)+encryptedPayloadOverhead)
	}
	if bytes.Contains(blob, plaintext) {
		t.Error("ciphertext contains the plaintext")
	}

	restored, err := decryptPayload(key, address, blob)
	if err != nil {
		t.Fatalf("decryptPayload: %v", err)
	}
	if !bytes.Equal(restored, plaintext) {
		t.Error("round trip did not restore original bytes")
	}
}

func TestEncryptPayloadFreshNonce(t *testing.T) {
	key := testEncryptionKey(t)
	plaintext := []byte("same input twice")
	address := ComputeAddress(plaintext)

	first, err := encryptPayload(key, address, plaintext)
	if err != nil {
		t.Fatalf("encryptPayload: %v", err)
	}
	second, err := encryptPayload(key, address, plaintext)
	if err != nil {
		t.Fatalf("encryptPayload: %v", err)
	}
	if bytes.Equal(first, second) {
		t.Error("two encryptions of the same payload produced identical blobs")
	}
}

func TestDecryptPayloadWrongKey(t *testing.T) {
	plaintext := []byte("secret")
	address := ComputeAddress(plaintext)

	blob, err := encryptPayload(testEncryptionKey(t), address, plaintext)
	if err != nil {
		t.Fatalf("encryptPayload: %v", err)
	}
	if _, err := decryptPayload(testEncryptionKey(t), address, blob); err == nil {
		t.Error("decryption with a different key succeeded")
	}
}

func TestDecryptPayloadWrongAddress(t *testing.T) {
	key := testEncryptionKey(t)
	plaintext := []byte("bound to one address")

	blob, err := encryptPayload(key, ComputeAddress(plaintext), plaintext)
	if err != nil {
		t.Fatalf("encryptPayload: %v", err)
	}

	// Simulates swapping payload blobs between rows in the database
	// file: the AAD binds each blob to its own address.
	other := ComputeAddress([]byte("a different chunk"))
	if _, err := decryptPayload(key, other, blob); err == nil {
		t.Error("decryption under a different address succeeded")
	}
}

func TestDecryptPayloadTampered(t *testing.T) {
	key := testEncryptionKey(t)
	plaintext := []byte("integrity protected")
	address := ComputeAddress(plaintext)

	blob, err := encryptPayload(key, address, plaintext)
	if err != nil {
		t.Fatalf("encryptPayload: %v", err)
	}

	tampered := bytes.Clone(blob)
	tampered[len(tampered)-1] ^= 0x01
	if _, err := decryptPayload(key, address, tampered); err == nil {
		t.Error("tampered ciphertext accepted")
	}
}

func TestDecryptPayloadBadVersion(t *testing.T) {
	key := testEncryptionKey(t)
	plaintext := []byte("versioned")
	address := ComputeAddress(plaintext)

	blob, err := encryptPayload(key, address, plaintext)
	if err != nil {
		t.Fatalf("encryptPayload: %v", err)
	}

	blob[0] = 0x7F
	if _, err := decryptPayload(key, address, blob); err == nil {
		t.Error("unsupported version accepted")
	}
}

func TestDecryptPayloadTruncated(t *testing.T) {
	key := testEncryptionKey(t)
	short := make([]byte, encryptedPayloadOverhead-1)
	if _, err := decryptPayload(key, Address{}, short); err == nil {
		t.Error("truncated blob accepted")
	}
}

func TestDerivePayloadKey(t *testing.T) {
	master := testEncryptionKey(t)
	first := ComputeAddress([]byte("one"))
	second := ComputeAddress([]byte("two"))

	keyA, err := derivePayloadKey(master, first)
	if err != nil {
		t.Fatalf("derivePayloadKey: %v", err)
	}
	keyB, err := derivePayloadKey(master, first)
	if err != nil {
		t.Fatalf("derivePayloadKey: %v", err)
	}
	if !bytes.Equal(keyA, keyB) {
		t.Error("same address derived different keys")
	}

	keyC, err := derivePayloadKey(master, second)
	if err != nil {
		t.Fatalf("derivePayloadKey: %v", err)
	}
	if bytes.Equal(keyA, keyC) {
		t.Error("different addresses derived the same key")
	}
}
