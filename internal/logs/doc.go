// Package logs reads the uploadcheck log file for `uploadcheck logs`: the
// last N lines, and new lines as they are appended when following.
package logs
