package filesystem

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"filewarden/pkg/models"
)

const readChunkSize = 256 * 1024

// ReadAndHash reads a file fully and computes both digests in one pass.
// The context is checked between chunks so a deadline can interrupt an
// oversized or unresponsive file without stalling its worker.
func ReadAndHash(ctx context.Context, path string) ([]byte, models.FileHash, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.FileHash{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	md5Hash := md5.New()
	shaHash := sha256.New()
	var content bytes.Buffer

	chunk := make([]byte, readChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, models.FileHash{}, fmt.Errorf("reading %s: %w", path, err)
		}

		n, err := f.Read(chunk)
		if n > 0 {
			content.Write(chunk[:n])
			md5Hash.Write(chunk[:n])
			shaHash.Write(chunk[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, models.FileHash{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	hash := models.FileHash{
		MD5:    hex.EncodeToString(md5Hash.Sum(nil)),
		SHA256: hex.EncodeToString(shaHash.Sum(nil)),
	}

	return content.Bytes(), hash, nil
}

// HashFile computes both digests of a file on disk without retaining its
// content. Used by the vault to verify copies.
func HashFile(path string) (models.FileHash, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.FileHash{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	md5Hash := md5.New()
	shaHash := sha256.New()

	if _, err := io.Copy(io.MultiWriter(md5Hash, shaHash), f); err != nil {
		return models.FileHash{}, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return models.FileHash{
		MD5:    hex.EncodeToString(md5Hash.Sum(nil)),
		SHA256: hex.EncodeToString(shaHash.Sum(nil)),
	}, nil
}

// CopyFile copies a file from src to dst and syncs the destination
func CopyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// ParseSize parses a size string (e.g. "650K", "4M") to bytes
func ParseSize(sizeStr string) int64 {
	if len(sizeStr) == 0 {
		return 0
	}

	last := sizeStr[len(sizeStr)-1]
	var multiplier int64 = 1

	switch last {
	case 'K', 'k':
		multiplier = 1024
		sizeStr = sizeStr[:len(sizeStr)-1]
	case 'M', 'm':
		multiplier = 1024 * 1024
		sizeStr = sizeStr[:len(sizeStr)-1]
	case 'G', 'g':
		multiplier = 1024 * 1024 * 1024
		sizeStr = sizeStr[:len(sizeStr)-1]
	}

	var size int64
	fmt.Sscanf(sizeStr, "%d", &size)

	return size * multiplier
}
