// Package fingerprint computes content fingerprints for files.
//
// A fingerprint is a hex-encoded digest of a file's full byte stream and is
// used as a proxy for content equality during deduplication. Collisions
// between distinct contents are treated as impossible for this purpose;
// this is a best-effort dedup tool, not an integrity checker.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

const chunkSize = 8 * 1024 * 1024 // 8 MiB read chunks

// Algorithm selects the digest function.
type Algorithm string

const (
	MD5  Algorithm = "md5"
	XXH3 Algorithm = "xxh3"
)

// ParseAlgorithm validates a user-supplied algorithm name.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case MD5:
		return MD5, nil
	case XXH3:
		return XXH3, nil
	default:
		return "", fmt.Errorf("unknown hash algorithm %q (supported: md5, xxh3)", s)
	}
}

func (a Algorithm) newHash() (hash.Hash, error) {
	switch a {
	case MD5:
		return md5.New(), nil
	case XXH3:
		return xxh3.New(), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", string(a))
	}
}

// File calculates the fingerprint of the file at path, reading it in
// bounded chunks so arbitrarily large files never load into memory at once.
// An empty file yields the digest of empty input.
func File(path string, algo Algorithm) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return Reader(file, algo)
}

// Reader calculates the fingerprint of everything readable from r.
func Reader(r io.Reader, algo Algorithm) (string, error) {
	h, err := algo.newHash()
	if err != nil {
		return "", err
	}

	buffer := make([]byte, chunkSize)
	for {
		n, err := r.Read(buffer)
		if n > 0 {
			if _, werr := h.Write(buffer[:n]); werr != nil {
				return "", fmt.Errorf("write to hash: %w", werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
