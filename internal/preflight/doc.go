// Package preflight provides readiness checks for the programs, directories,
// and remote services uploadcheck depends on.
//
// The CLI "doctor" command runs every check and prints the results.
package preflight
