// Command uploadcheck scans a movie library and reports which files are
// safe to upload to each configured private catalog.
package main
