// Package scanner walks the configured movie directories and records every
// candidate file in the store.
//
// Directories named like season folders are pruned. Files must carry a
// configured extension and meet the minimum size. A file whose size and
// modification time match its stored row is left alone; everything else is
// parsed with ParseFilename and screened against the ignore rules so later
// stages never spend lookups on TV episodes, ignored sources, or banned
// groups.
package scanner
