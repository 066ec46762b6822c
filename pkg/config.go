package blockdupes

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-ini/ini"
)

// Config represents the blockdupes configuration
type Config struct {
	configPath string
	ini        *ini.File
}

// HashConfig represents hash algorithm configuration
type HashConfig struct {
	Default string // Hash algorithm name
}

// ScanConfig represents traversal and hashing parameters
type ScanConfig struct {
	Include   []string
	Exclude   []string
	IName     []string
	Depth     int
	Size      int64 // signed size filter in bytes
	BlockSize int
}

// OutputConfig represents output format configuration
type OutputConfig struct {
	Format string // human, fdupes, json, yaml
}

// VerboseConfig represents verbosity configuration
type VerboseConfig struct {
	Level int    // 0=quiet, 1=summary, 2=detailed, 3=trace
	Debug string // comma-separated debug flags
}

// PerformanceConfig represents performance-related configuration
type PerformanceConfig struct {
	HashWorkers int // cohorts grouped concurrently (default: 1)
	WalkWorkers int // fastwalk directory readers (default: 0 = fastwalk default)
}

// AllConfig represents all configuration options
type AllConfig struct {
	Hash        *HashConfig
	Scan        *ScanConfig
	Output      *OutputConfig
	Verbose     *VerboseConfig
	Performance *PerformanceConfig
}

// envConfig mirrors the config keys that may be set from the environment.
// Unset variables leave the pointer nil so the ini value survives.
type envConfig struct {
	Hash        *string  `env:"BLOCKDUPES_HASH"`
	Include     []string `env:"BLOCKDUPES_INCLUDE" envSeparator:":"`
	Exclude     []string `env:"BLOCKDUPES_EXCLUDE" envSeparator:":"`
	IName       []string `env:"BLOCKDUPES_INAME" envSeparator:";"`
	Depth       *string  `env:"BLOCKDUPES_DEPTH"`
	Size        *string  `env:"BLOCKDUPES_SIZE"`
	BlockSize   *string  `env:"BLOCKDUPES_BLOCK_SIZE"`
	Format      *string  `env:"BLOCKDUPES_FORMAT"`
	Verbose     *string  `env:"BLOCKDUPES_VERBOSE"`
	Debug       *string  `env:"BLOCKDUPES_DEBUG"`
	HashWorkers *string  `env:"BLOCKDUPES_HASH_WORKERS"`
	WalkWorkers *string  `env:"BLOCKDUPES_WALK_WORKERS"`
}

var iniLoadOptions = ini.LoadOptions{AllowShadows: true}

// NewConfig returns a configuration holding only defaults
func NewConfig() (*Config, error) {
	iniFile, err := ini.LoadSources(iniLoadOptions, []byte{})
	if err != nil {
		return nil, fmt.Errorf("failed to create empty config: %w", err)
	}
	cfg := &Config{ini: iniFile}
	if err := cfg.setDefaults(); err != nil {
		return nil, fmt.Errorf("failed to set default config: %w", err)
	}
	return cfg, nil
}

// LoadConfig loads configuration from an ini file. A missing file yields the
// defaults; the file is never created or written.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return NewConfig()
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg, err := NewConfig()
		if err != nil {
			return nil, err
		}
		cfg.configPath = configPath
		return cfg, nil
	}

	iniFile, err := ini.LoadSources(iniLoadOptions, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	return &Config{configPath: configPath, ini: iniFile}, nil
}

// Path returns the file the configuration was loaded from, if any
func (c *Config) Path() string {
	return c.configPath
}

// setDefaults sets default configuration values
func (c *Config) setDefaults() error {
	defaults := []struct {
		section, key, value string
	}{
		{"filehash", "default", DefaultHashAlgorithm},
		{"scan", "depth", strconv.Itoa(DefaultDepth)},
		{"scan", "size", strconv.Itoa(DefaultSizeFilter)},
		{"scan", "block_size", strconv.Itoa(DefaultBlockSize)},
		{"output", "format", DefaultOutputFormat},
		{"verbose", "level", "0"},
		{"verbose", "debug", ""},
		{"performance", "hash_workers", strconv.Itoa(DefaultHashWorkers)},
		{"performance", "walk_workers", "0"},
	}
	for _, d := range defaults {
		section, err := c.ini.NewSection(d.section)
		if err != nil {
			return fmt.Errorf("failed to create %s section: %w", d.section, err)
		}
		if _, err := section.NewKey(d.key, d.value); err != nil {
			return fmt.Errorf("failed to set default %s.%s: %w", d.section, d.key, err)
		}
	}
	return nil
}

// GetHashConfig returns the hash configuration
func (c *Config) GetHashConfig() *HashConfig {
	hashConfig := &HashConfig{
		Default: DefaultHashAlgorithm,
	}

	if c.ini.HasSection("filehash") {
		section := c.ini.Section("filehash")
		if section.HasKey("default") {
			hashConfig.Default = section.Key("default").String()
		}
	}

	return hashConfig
}

// GetScanConfig returns the traversal configuration. Unparseable numeric
// values fall back to defaults here; ToScanOptions reports them as errors.
func (c *Config) GetScanConfig() *ScanConfig {
	scanConfig := &ScanConfig{
		Depth:     DefaultDepth,
		Size:      DefaultSizeFilter,
		BlockSize: DefaultBlockSize,
	}

	if !c.ini.HasSection("scan") {
		return scanConfig
	}
	section := c.ini.Section("scan")
	scanConfig.Include = pathListValues(section, "include")
	scanConfig.Exclude = pathListValues(section, "exclude")
	scanConfig.IName = keyValues(section, "iname")
	if section.HasKey("depth") {
		if depth, err := section.Key("depth").Int(); err == nil {
			scanConfig.Depth = depth
		}
	}
	if section.HasKey("size") {
		if size, err := ParseSignedSize(section.Key("size").String()); err == nil {
			scanConfig.Size = size
		}
	}
	if section.HasKey("block_size") {
		if blockSize, err := ParseBlockSize(section.Key("block_size").String()); err == nil {
			scanConfig.BlockSize = blockSize
		}
	}

	return scanConfig
}

// GetOutputConfig returns the output configuration
func (c *Config) GetOutputConfig() *OutputConfig {
	outputConfig := &OutputConfig{
		Format: DefaultOutputFormat,
	}

	if c.ini.HasSection("output") {
		section := c.ini.Section("output")
		if section.HasKey("format") {
			outputConfig.Format = section.Key("format").String()
		}
	}

	return outputConfig
}

// GetVerboseConfig returns the verbose configuration
func (c *Config) GetVerboseConfig() *VerboseConfig {
	verboseConfig := &VerboseConfig{}

	if c.ini.HasSection("verbose") {
		section := c.ini.Section("verbose")
		if section.HasKey("level") {
			if level, err := section.Key("level").Int(); err == nil {
				verboseConfig.Level = level
			}
		}
		if section.HasKey("debug") {
			verboseConfig.Debug = section.Key("debug").String()
		}
	}

	return verboseConfig
}

// GetPerformanceConfig returns the performance configuration
func (c *Config) GetPerformanceConfig() *PerformanceConfig {
	performanceConfig := &PerformanceConfig{
		HashWorkers: DefaultHashWorkers,
	}

	if c.ini.HasSection("performance") {
		section := c.ini.Section("performance")
		if section.HasKey("hash_workers") {
			if workers, err := section.Key("hash_workers").Int(); err == nil {
				performanceConfig.HashWorkers = workers
			}
		}
		if section.HasKey("walk_workers") {
			if workers, err := section.Key("walk_workers").Int(); err == nil {
				performanceConfig.WalkWorkers = workers
			}
		}
	}

	return performanceConfig
}

// GetAllConfig returns all configuration options
func (c *Config) GetAllConfig() *AllConfig {
	return &AllConfig{
		Hash:        c.GetHashConfig(),
		Scan:        c.GetScanConfig(),
		Output:      c.GetOutputConfig(),
		Verbose:     c.GetVerboseConfig(),
		Performance: c.GetPerformanceConfig(),
	}
}

// Set replaces a single-valued key
func (c *Config) Set(sectionName, key, value string) {
	section := c.ini.Section(sectionName)
	section.DeleteKey(key)
	section.Key(key).SetValue(value)
}

// SetList replaces a multi-valued key. Values are stored as shadowed keys so
// patterns containing commas survive intact.
func (c *Config) SetList(sectionName, key string, values []string) error {
	section := c.ini.Section(sectionName)
	section.DeleteKey(key)
	return c.appendList(section, key, values)
}

func (c *Config) appendList(section *ini.Section, key string, values []string) error {
	for _, value := range values {
		if !section.HasKey(key) {
			if _, err := section.NewKey(key, value); err != nil {
				return fmt.Errorf("failed to set %s: %w", key, err)
			}
			continue
		}
		if err := section.Key(key).AddShadow(value); err != nil {
			return fmt.Errorf("failed to add %s value: %w", key, err)
		}
	}
	return nil
}

// ApplyOverrides applies command-line overrides to the configuration
// Accepts strings like "default:sha256", "format:json", "depth:3", "iname:.*\.log".
// List keys (include, exclude, iname) append rather than replace.
func (c *Config) ApplyOverrides(overrides []string) error {
	for _, override := range overrides {
		parts := strings.SplitN(override, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid override format '%s', expected 'key:value'", override)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "default", "hash":
			c.Set("filehash", "default", value)
		case "include", "exclude", "iname":
			if err := c.appendList(c.ini.Section("scan"), key, []string{value}); err != nil {
				return err
			}
		case "depth", "size", "block_size":
			c.Set("scan", key, value)
		case "format":
			c.Set("output", "format", value)
		case "level", "debug":
			c.Set("verbose", key, value)
		case "hash_workers", "walk_workers":
			c.Set("performance", key, value)
		default:
			return fmt.Errorf("unsupported override key '%s' (supported: default, include, exclude, iname, depth, size, block_size, format, level, debug, hash_workers, walk_workers)", key)
		}
	}

	return nil
}

// ApplyEnv overlays BLOCKDUPES_* environment variables onto the configuration
func (c *Config) ApplyEnv() error {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	singles := []struct {
		value        *string
		section, key string
	}{
		{ec.Hash, "filehash", "default"},
		{ec.Depth, "scan", "depth"},
		{ec.Size, "scan", "size"},
		{ec.BlockSize, "scan", "block_size"},
		{ec.Format, "output", "format"},
		{ec.Verbose, "verbose", "level"},
		{ec.Debug, "verbose", "debug"},
		{ec.HashWorkers, "performance", "hash_workers"},
		{ec.WalkWorkers, "performance", "walk_workers"},
	}
	for _, s := range singles {
		if s.value != nil {
			c.Set(s.section, s.key, *s.value)
		}
	}

	lists := []struct {
		values []string
		key    string
	}{
		{ec.Include, "include"},
		{ec.Exclude, "exclude"},
		{ec.IName, "iname"},
	}
	for _, l := range lists {
		if len(l.values) == 0 {
			continue
		}
		if err := c.SetList("scan", l.key, l.values); err != nil {
			return err
		}
	}

	return nil
}

// ToScanOptions validates the configuration and builds the immutable ScanOptions
func (c *Config) ToScanOptions() (*ScanOptions, error) {
	params := ScanParams{
		HashAlgorithm: c.GetHashConfig().Default,
	}
	if err := ValidateHashAlgorithm(params.HashAlgorithm); err != nil {
		return nil, err
	}

	section := c.ini.Section("scan")
	params.IncludePaths = pathListValues(section, "include")
	params.ExcludePaths = pathListValues(section, "exclude")
	params.NamePatterns = keyValues(section, "iname")

	params.Depth = DefaultDepth
	if section.HasKey("depth") {
		depth, err := section.Key("depth").Int()
		if err != nil {
			return nil, fmt.Errorf("invalid scan.depth: %w", err)
		}
		if err := ValidateDepth(depth); err != nil {
			return nil, err
		}
		params.Depth = depth
	}

	params.SizeFilter = DefaultSizeFilter
	if section.HasKey("size") {
		size, err := ParseSignedSize(section.Key("size").String())
		if err != nil {
			return nil, fmt.Errorf("invalid scan.size: %w", err)
		}
		params.SizeFilter = size
	}

	params.BlockSize = DefaultBlockSize
	if section.HasKey("block_size") {
		blockSize, err := ParseBlockSize(section.Key("block_size").String())
		if err != nil {
			return nil, fmt.Errorf("invalid scan.block_size: %w", err)
		}
		params.BlockSize = blockSize
	}

	perf := c.ini.Section("performance")
	params.HashWorkers = DefaultHashWorkers
	if perf.HasKey("hash_workers") {
		workers, err := perf.Key("hash_workers").Int()
		if err != nil {
			return nil, fmt.Errorf("invalid performance.hash_workers: %w", err)
		}
		params.HashWorkers = workers
	}
	if perf.HasKey("walk_workers") {
		workers, err := perf.Key("walk_workers").Int()
		if err != nil {
			return nil, fmt.Errorf("invalid performance.walk_workers: %w", err)
		}
		params.WalkWorkers = workers
	}

	return NewScanOptions(params)
}

// keyValues returns every non-empty value of a possibly shadowed key
func keyValues(section *ini.Section, key string) []string {
	if !section.HasKey(key) {
		return nil
	}
	var values []string
	for _, v := range section.Key(key).ValueWithShadows() {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// pathListValues reads a path list key. Each value, shadowed or not, may hold
// several comma-separated paths. Name patterns do not go through here since
// a regex may contain commas.
func pathListValues(section *ini.Section, key string) []string {
	var paths []string
	for _, v := range keyValues(section, key) {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
	}
	return paths
}

// ValidateHashAlgorithm validates that a hash algorithm is supported
func ValidateHashAlgorithm(algorithm string) error {
	if _, ok := HashTypeFromName(algorithm); !ok {
		return fmt.Errorf("%w: %s (supported: crc32, xxhash, md5, sha256, blake3)", ErrUnsupportedHash, algorithm)
	}
	return nil
}

// ValidateOutputFormat validates that an output format is supported
func ValidateOutputFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatHuman, FormatFdupes, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("%w: %s (supported: human, fdupes, json, yaml)", ErrUnsupportedFormat, format)
	}
}

// ValidateVerboseLevel validates that a verbose level is valid
func ValidateVerboseLevel(level int) error {
	if level < 0 || level > 3 {
		return fmt.Errorf("invalid verbose level: %d (supported: 0-3)", level)
	}
	return nil
}

// ValidateDepth validates the recursion depth limit
func ValidateDepth(depth int) error {
	if depth < 0 {
		return fmt.Errorf("depth must not be negative, got: %d", depth)
	}
	return nil
}

// ValidateHashWorkers validates that the hash worker count is reasonable
func ValidateHashWorkers(workers int) error {
	if workers < 1 {
		return fmt.Errorf("hash workers must be at least 1, got: %d", workers)
	}
	if workers > MaxHashWorkers {
		return fmt.Errorf("hash workers should not exceed %d, got: %d", MaxHashWorkers, workers)
	}
	return nil
}
