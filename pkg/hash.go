package blockdupes

import (
	"bytes"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// HashAlgorithm represents a hash algorithm configuration
type HashAlgorithm struct {
	Name    string
	TypeID  uint16
	Size    int
	Weak    bool // collisions are practical; full-length matches are not proof of equality
	NewFunc func() hash.Hash
}

// GetHashAlgorithm returns the hash algorithm configuration for the given name
func GetHashAlgorithm(name string) (*HashAlgorithm, error) {
	typeID, ok := HashTypeFromName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedHash, name)
	}
	return GetHashAlgorithmByType(typeID)
}

// GetHashAlgorithmByType returns the hash algorithm configuration for the given type ID
func GetHashAlgorithmByType(typeID uint16) (*HashAlgorithm, error) {
	switch typeID {
	case HashTypeCRC32:
		return &HashAlgorithm{
			Name:    "crc32",
			TypeID:  HashTypeCRC32,
			Size:    HashSizeCRC32,
			Weak:    true,
			NewFunc: func() hash.Hash { return crc32.NewIEEE() },
		}, nil
	case HashTypeXXHash:
		return &HashAlgorithm{
			Name:    "xxhash",
			TypeID:  HashTypeXXHash,
			Size:    HashSizeXXHash,
			Weak:    true,
			NewFunc: func() hash.Hash { return xxhash.New() },
		}, nil
	case HashTypeMD5:
		return &HashAlgorithm{
			Name:    "md5",
			TypeID:  HashTypeMD5,
			Size:    HashSizeMD5,
			NewFunc: func() hash.Hash { return md5.New() },
		}, nil
	case HashTypeSHA256:
		return &HashAlgorithm{
			Name:    "sha256",
			TypeID:  HashTypeSHA256,
			Size:    HashSizeSHA256,
			NewFunc: func() hash.Hash { return sha256.New() },
		}, nil
	case HashTypeBLAKE3:
		return &HashAlgorithm{
			Name:    "blake3",
			TypeID:  HashTypeBLAKE3,
			Size:    HashSizeBLAKE3,
			NewFunc: func() hash.Hash { return blake3.New() },
		}, nil
	default:
		return nil, fmt.Errorf("%w: type id %d", ErrUnsupportedHash, typeID)
	}
}

// HashCalculator folds a file into a running digest one block at a time.
//
// The file is opened on the first Step and closed as soon as a short read
// marks the stream finished, an I/O error marks it failed, or Close is
// called. A calculator is owned by exactly one FileCandidate.
type HashCalculator struct {
	path      string
	algorithm *HashAlgorithm
	blockSize int

	file     *os.File
	hasher   hash.Hash
	buf      []byte
	digest   []byte
	finished bool
	failed   error

	blocksRead int
	bytesRead  int64
}

// NewHashCalculator creates a calculator for path. No I/O happens until Step.
func NewHashCalculator(path string, algorithm *HashAlgorithm, blockSize int) (*HashCalculator, error) {
	if algorithm == nil {
		return nil, fmt.Errorf("%w: nil algorithm", ErrUnsupportedHash)
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}
	return &HashCalculator{
		path:      path,
		algorithm: algorithm,
		blockSize: blockSize,
	}, nil
}

// Step reads the next block and folds it into the digest. It is a no-op once
// the calculator is finished or failed. The returned error is also recorded
// and reported by Failed.
func (hc *HashCalculator) Step() error {
	if hc.finished {
		return nil
	}
	if hc.failed != nil {
		return hc.failed
	}

	if hc.file == nil {
		file, err := os.Open(hc.path)
		if err != nil {
			return hc.fail(fmt.Errorf("failed to open file %s: %w", hc.path, err))
		}
		adviseSequential(file)
		hc.file = file
		hc.hasher = hc.algorithm.NewFunc()
		hc.buf = make([]byte, hc.blockSize)
	}

	n, err := io.ReadFull(hc.file, hc.buf)
	hc.blocksRead++
	hc.bytesRead += int64(n)
	if n > 0 {
		hc.hasher.Write(hc.buf[:n])
	}
	hc.digest = hc.hasher.Sum(hc.digest[:0])

	switch {
	case err == nil:
		// full block, more may follow
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		hc.finished = true
		hc.release()
	default:
		return hc.fail(fmt.Errorf("failed to read from file %s: %w", hc.path, err))
	}

	if IsDebugEnabled(DebugHash) {
		VerboseLog(3, "hash: %s block=%d n=%d finished=%t digest=%x", hc.path, hc.blocksRead, n, hc.finished, hc.digest)
	}
	return nil
}

func (hc *HashCalculator) fail(err error) error {
	hc.failed = err
	hc.release()
	return err
}

func (hc *HashCalculator) release() {
	if hc.file != nil {
		hc.file.Close()
		hc.file = nil
	}
	hc.buf = nil
}

// Equal reports whether both calculators have consumed equal content so far.
// Calculators of different algorithms, block sizes or finished states are
// never equal, and a failed calculator equals nothing.
func (hc *HashCalculator) Equal(other *HashCalculator) bool {
	if hc == nil || other == nil {
		return false
	}
	if hc.failed != nil || other.failed != nil {
		return false
	}
	if hc.algorithm.TypeID != other.algorithm.TypeID ||
		hc.blockSize != other.blockSize ||
		hc.finished != other.finished {
		return false
	}
	return bytes.Equal(hc.digest, other.digest)
}

// Close releases the underlying file. Safe to call more than once.
func (hc *HashCalculator) Close() error {
	if hc.file == nil {
		return nil
	}
	err := hc.file.Close()
	hc.file = nil
	hc.buf = nil
	return err
}

// Finished returns true once the whole file has been consumed
func (hc *HashCalculator) Finished() bool { return hc.finished }

// Failed returns the error that stopped this calculator, if any
func (hc *HashCalculator) Failed() error { return hc.failed }

// Digest returns the current digest bytes
func (hc *HashCalculator) Digest() []byte { return hc.digest }

// HexDigest returns the current digest as a hex string
func (hc *HashCalculator) HexDigest() string { return hex.EncodeToString(hc.digest) }

// BlocksRead returns the number of Step reads performed
func (hc *HashCalculator) BlocksRead() int { return hc.blocksRead }

// BytesRead returns the number of content bytes consumed
func (hc *HashCalculator) BytesRead() int64 { return hc.bytesRead }

// Algorithm returns the algorithm this calculator was built with
func (hc *HashCalculator) Algorithm() *HashAlgorithm { return hc.algorithm }

// BlockSize returns the configured block size
func (hc *HashCalculator) BlockSize() int { return hc.blockSize }

// HashFile calculates the full-content hash of a file in one pass
func HashFile(filePath string, algorithm *HashAlgorithm) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	hasher := algorithm.NewFunc()
	if _, err := io.Copy(hasher, file); err != nil {
		return nil, fmt.Errorf("failed to hash file %s: %w", filePath, err)
	}

	return hasher.Sum(nil), nil
}

// HashFileToHexString calculates the hash of a file and returns it as a hex string
func HashFileToHexString(filePath string, algorithm *HashAlgorithm) (string, error) {
	hashBytes, err := HashFile(filePath, algorithm)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(hashBytes), nil
}
