package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	blockdupes "github.com/mattkeenan/blockdupes/pkg"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// exitInterrupted follows the shell convention for SIGINT
const exitInterrupted = 130

func main() {
	shutdown := setupSignalHandler()
	if err := run(os.Args[1:], os.Stdout, os.Stderr, shutdown); err != nil {
		fmt.Fprintf(os.Stderr, "blockdupes: %v\n", err)
		if blockdupes.IsInterrupted(err) {
			os.Exit(exitInterrupted)
		}
		os.Exit(1)
	}
}

// cliOptions holds the raw flag values before they are layered onto the config
type cliOptions struct {
	configPath   string
	includePaths []string
	excludePaths []string
	namePatterns []string
	depth        int
	size         string
	blockSize    string
	hash         string
	workers      int
	format       string
	verbose      int
	debug        string
	overrides    []string
	showVersion  bool
	showHelp     bool
}

func newFlagSet(opts *cliOptions) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("blockdupes", pflag.ContinueOnError)
	flagSet.SortFlags = false

	flagSet.StringVarP(&opts.configPath, "config", "c", "", "ini configuration file (missing file means defaults)")
	flagSet.StringArrayVarP(&opts.includePaths, "include-path", "i", nil, "directory to scan (repeatable; positional arguments are also include paths)")
	flagSet.StringArrayVarP(&opts.excludePaths, "exclude", "e", nil, "directory to skip, with everything below it (repeatable)")
	flagSet.IntVarP(&opts.depth, "depth", "d", blockdupes.DefaultDepth, "directory levels to descend below each include path (0 = direct children only)")
	flagSet.StringArrayVar(&opts.namePatterns, "iname", nil, "case-insensitive regex or glob the file name must fully match (repeatable)")
	flagSet.StringVarP(&opts.size, "size", "s", strconv.Itoa(blockdupes.DefaultSizeFilter), "minimum file size, or maximum when negative (e.g. 10K, -1MiB)")
	flagSet.StringVarP(&opts.blockSize, "block-size", "b", strconv.Itoa(blockdupes.DefaultBlockSize), "bytes read per hashing step (e.g. 8, 4KiB)")
	flagSet.StringVarP(&opts.hash, "hash", "H", blockdupes.DefaultHashAlgorithm, "hash algorithm: crc32, xxhash, md5, sha256, blake3 (aliases: fast, crypto)")
	flagSet.IntVarP(&opts.workers, "workers", "w", blockdupes.DefaultHashWorkers, "size cohorts hashed concurrently")
	flagSet.StringVarP(&opts.format, "format", "f", blockdupes.DefaultOutputFormat, "output format: human, fdupes, json, yaml")
	flagSet.CountVarP(&opts.verbose, "verbose", "v", "verbose output on stderr (repeat for more)")
	flagSet.StringVar(&opts.debug, "debug", "", "debug flags: walk,classify,group,hash,report")
	flagSet.StringArrayVarP(&opts.overrides, "override", "o", nil, "config override as key:value (repeatable)")
	flagSet.BoolVar(&opts.showVersion, "version", false, "show version information")
	flagSet.BoolVarP(&opts.showHelp, "help", "h", false, "show help")

	return flagSet
}

func run(args []string, stdout, stderr io.Writer, shutdown <-chan struct{}) error {
	var opts cliOptions
	flagSet := newFlagSet(&opts)
	flagSet.SetOutput(stderr)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}

	if opts.showVersion {
		fmt.Fprintf(stdout, "blockdupes %s\n", version)
		return nil
	}
	if opts.showHelp {
		printHelp(stdout, flagSet)
		return nil
	}

	cfg, err := buildConfig(flagSet, &opts)
	if err != nil {
		return err
	}

	verboseConfig := cfg.GetVerboseConfig()
	if err := blockdupes.ValidateVerboseLevel(verboseConfig.Level); err != nil {
		return err
	}
	blockdupes.SetLogOutput(stderr)
	blockdupes.SetVerboseLevel(verboseConfig.Level)
	blockdupes.InitDebugFlags(verboseConfig.Debug)
	blockdupes.LogDebugFlags()
	if cfg.Path() != "" {
		blockdupes.VerboseLog(2, "using config file %s", cfg.Path())
	}

	scanOpts, err := cfg.ToScanOptions()
	if err != nil {
		return err
	}

	format := cfg.GetOutputConfig().Format
	reporter, err := blockdupes.NewReporter(format, stdout)
	if err != nil {
		return err
	}
	if blockdupes.GetDebugEnabled(blockdupes.DebugReport) {
		blockdupes.VerboseLog(2, "reporting %s output, block size %d, hash %s",
			format, scanOpts.BlockSize(), scanOpts.HashAlgorithm().Name)
	}

	scanner := blockdupes.NewScanner(scanOpts, reporter)
	_, err = scanner.Run(shutdown)
	if blockdupes.GetVerbose() > 0 {
		stats := scanner.Stats()
		fmt.Fprintf(stderr, "blockdupes: %d groups, %d redundant files, %s reclaimable in %v\n",
			stats.Groups, stats.DuplicateFiles, blockdupes.FormatSize(stats.WastedBytes), stats.Elapsed.Round(time.Millisecond))
	}
	return err
}

// buildConfig layers the sources in increasing precedence: ini file,
// key:value overrides, environment, then explicitly given flags.
func buildConfig(flagSet *pflag.FlagSet, opts *cliOptions) (*blockdupes.Config, error) {
	cfg, err := blockdupes.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyOverrides(opts.overrides); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	includes := append(append([]string{}, opts.includePaths...), flagSet.Args()...)
	if len(includes) > 0 {
		if err := cfg.SetList("scan", "include", includes); err != nil {
			return nil, err
		}
	}
	if flagSet.Changed("exclude") {
		if err := cfg.SetList("scan", "exclude", opts.excludePaths); err != nil {
			return nil, err
		}
	}
	if flagSet.Changed("iname") {
		if err := cfg.SetList("scan", "iname", opts.namePatterns); err != nil {
			return nil, err
		}
	}

	singles := []struct {
		flag, section, key, value string
	}{
		{"depth", "scan", "depth", strconv.Itoa(opts.depth)},
		{"size", "scan", "size", opts.size},
		{"block-size", "scan", "block_size", opts.blockSize},
		{"hash", "filehash", "default", opts.hash},
		{"workers", "performance", "hash_workers", strconv.Itoa(opts.workers)},
		{"format", "output", "format", opts.format},
		{"verbose", "verbose", "level", strconv.Itoa(opts.verbose)},
		{"debug", "verbose", "debug", opts.debug},
	}
	for _, s := range singles {
		if flagSet.Changed(s.flag) {
			cfg.Set(s.section, s.key, s.value)
		}
	}

	if err := blockdupes.ValidateOutputFormat(cfg.GetOutputConfig().Format); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `blockdupes - find files with identical content

Files are bucketed by size, then read block by block; a file stops being
read as soon as its content diverges from every other file of its size.

Usage:
  blockdupes [flags] <dir>...

Configuration is layered, later sources winning: defaults, the --config
ini file, -o key:value overrides, BLOCKDUPES_* environment variables and
finally explicit flags.

Examples:
  blockdupes ~/Pictures
  blockdupes --depth 8 --iname '*.jpg' --iname '*.jpeg' ~/Pictures /mnt/backup
  blockdupes --size 1MiB --hash xxhash --format json /srv
  blockdupes -o exclude:/srv/cache -o depth:3 /srv

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
