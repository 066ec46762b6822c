package blockdupes

import (
	"errors"
	"strings"
)

// Hash type constants
const (
	HashTypeCRC32  uint16 = 1 // CRC-32 IEEE (4 bytes)
	HashTypeXXHash uint16 = 2 // xxHash64 (8 bytes)
	HashTypeMD5    uint16 = 3 // MD5 (16 bytes)
	HashTypeSHA256 uint16 = 4 // SHA-256 (32 bytes)
	HashTypeBLAKE3 uint16 = 5 // BLAKE3 (32 bytes)
)

// Hash size constants
const (
	HashSizeCRC32  = 4
	HashSizeXXHash = 8
	HashSizeMD5    = 16
	HashSizeSHA256 = 32
	HashSizeBLAKE3 = 32
)

// HashTypeName returns the human-readable name for a hash type
func HashTypeName(hashType uint16) string {
	switch hashType {
	case HashTypeCRC32:
		return "crc32"
	case HashTypeXXHash:
		return "xxhash"
	case HashTypeMD5:
		return "md5"
	case HashTypeSHA256:
		return "sha256"
	case HashTypeBLAKE3:
		return "blake3"
	default:
		return "unknown"
	}
}

// HashTypeFromName returns the hash type constant from a name (case-insensitive).
// The generic names "fast"/"checksum" select crc32 and "crypto"/"digest" select md5.
func HashTypeFromName(name string) (uint16, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "crc32", "crc", "fast", "checksum":
		return HashTypeCRC32, true
	case "xxhash", "xxh64":
		return HashTypeXXHash, true
	case "md5", "crypto", "digest":
		return HashTypeMD5, true
	case "sha256":
		return HashTypeSHA256, true
	case "blake3":
		return HashTypeBLAKE3, true
	default:
		return 0, false
	}
}

// Defaults applied when neither the config file nor overrides set a value
const (
	DefaultHashAlgorithm = "md5"
	DefaultBlockSize     = 4096
	DefaultSizeFilter    = 1
	DefaultDepth         = 0
	DefaultHashWorkers   = 1
	DefaultOutputFormat  = "human"
	MaxHashWorkers       = 64
)

// Output format names
const (
	FormatHuman  = "human"
	FormatFdupes = "fdupes"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
)

// Debug flag names understood by the scanner
const (
	DebugWalk     = "walk"
	DebugClassify = "classify"
	DebugGroup    = "group"
	DebugHash     = "hash"
	DebugReport   = "report"
)

var (
	ErrNoIncludePaths    = errors.New("no include paths given")
	ErrInvalidBlockSize  = errors.New("block size must be positive")
	ErrInterrupted       = errors.New("scan interrupted by shutdown")
	ErrUnsupportedHash   = errors.New("unsupported hash algorithm")
	ErrUnsupportedFormat = errors.New("unsupported output format")
)
