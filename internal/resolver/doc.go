// Package resolver translates human-readable drive paths into folder IDs by
// walking the folder tree one segment at a time from a starting folder.
//
// Matching is exact and case-sensitive; the first subfolder with the segment's
// name wins. Results are not cached, so a folder renamed between calls is
// observed on the next lookup.
package resolver
