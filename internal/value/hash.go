package value

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// leaves room for algorithm migration without colliding hashes.
const (
	DomainTask = "cellgraph/task/v1"
	DomainCell = "cellgraph/cell/v1"
)

// hashWithDomain computes SHA-256 over domain || 0x00 || data. The null
// separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TaskKey computes the memoization key for a task invocation. Equal name
// and observably equal args always produce the same key, across restarts.
func TaskKey(name string, args Object) (string, error) {
	if args == nil {
		args = Object{}
	}
	obj := Object{
		"name": String(name),
		"args": args,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("task key for %q: %w", name, err)
	}
	return hashWithDomain(DomainTask, canonical), nil
}

// ContentHash computes the content hash of a canonical value. Two values
// with the same hash are treated as observably equal by the shared cell
// update mode.
func ContentHash(v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("content hash: %w", err)
	}
	return hashWithDomain(DomainCell, canonical), nil
}

// ContentHashAny converts a plain Go value to the canonical vocabulary and
// hashes it. Values outside the vocabulary return an error; callers
// treat that as "no stable equality" and fall back to fresh-slot behavior.
func ContentHashAny(v any) (string, error) {
	cv, err := FromGo(v)
	if err != nil {
		return "", err
	}
	return ContentHash(cv)
}

// MarshalCanonicalAny converts a plain Go value to the canonical
// vocabulary and serializes it. Used for cell payload persistence.
func MarshalCanonicalAny(v any) ([]byte, error) {
	cv, err := FromGo(v)
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(cv)
}

// MustTaskKey is like TaskKey but panics on error.
// Use only in tests or when inputs are known to be canonical.
func MustTaskKey(name string, args Object) string {
	key, err := TaskKey(name, args)
	if err != nil {
		panic(err)
	}
	return key
}
