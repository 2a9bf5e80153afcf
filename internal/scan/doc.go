// Package scan lists a folder recursively and selects the files eligible for
// moving: excluded extensions are rejected first, then files below the size
// threshold. Extension matching uses Unicode case folding.
package scan
