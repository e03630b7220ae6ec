package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// hashPrefixBytes bounds how much of the file is read for the content hash.
// Long mixes run to hundreds of megabytes; the leading slice plus the size is
// enough to tell two recordings apart.
const hashPrefixBytes = 1 << 20

// FileHash returns a stable identifier for an audio file, derived from its
// size and the SHA-1 of its first megabyte.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	h := sha1.New()
	fmt.Fprintf(h, "size:%d;", info.Size())
	if _, err := io.CopyN(h, f, hashPrefixBytes); err != nil && err != io.EOF {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
