// Package report writes per-catalog upload reports from stored verdicts.
//
// Four formats are produced, each as one file per catalog in the output
// directory:
//   - txt: {catalog}_uploads.txt, files grouped by outcome with search links
//   - csv: {catalog}_uploads.csv, one row per file
//   - gg:  {catalog}_gg.txt, auto_upload.py command lines
//   - ua:  {catalog}_ua.txt, upload.py command lines
//
// Skipped files never appear. Command exports include risky files only when
// the export allows them; danger files are never exported as commands.
package report
