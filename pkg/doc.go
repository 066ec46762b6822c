// Package blockdupes finds files with identical content by reading them block
// by block and stopping as soon as a file's prefix stops matching every other
// candidate of the same size.
//
// # Core API
//
// Build the scan parameters, then run a Scanner over them:
//
//	opts, err := blockdupes.NewScanOptions(blockdupes.ScanParams{
//		IncludePaths:  []string{"/srv/photos"},
//		Depth:         8,
//		SizeFilter:    1,
//		BlockSize:     blockdupes.DefaultBlockSize,
//		HashAlgorithm: "md5",
//	})
//	reporter, _ := blockdupes.NewReporter("human", os.Stdout)
//	groups, err := blockdupes.NewScanner(opts, reporter).Run(nil)
//
// The reporter receives each size cohort's groups as soon as the cohort is
// resolved, so output starts long before a large tree has been hashed.
//
// # Pipeline
//
//   - Walker traverses the include roots (fastwalk), applying the exclude,
//     depth, name and size filters.
//   - ClassifyBySize buckets candidates into same-size cohorts and drops
//     sizes seen once.
//   - Grouper refines each cohort with incremental HashCalculators, reading
//     one more block only from files still tied with a sibling.
//
// # Configuration
//
// Config reads an ini file and layers key:value overrides and BLOCKDUPES_*
// environment variables on top; ToScanOptions validates the result.
//
//	blockdupes.SetDebugFlags("walk,group")
//	blockdupes.SetVerboseLevel(2)
package blockdupes
