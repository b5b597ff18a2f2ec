// Package logtail reads the tail of the console's log file and decodes its
// zerolog JSON lines for display.
//
// Read keeps a ring buffer of the last maxLines lines so a large file is
// scanned once with O(maxLines) memory. A non-positive maxLines returns the
// whole file. A missing file is not an error: the console may not have
// logged anything yet.
//
// Parse turns one line into an Entry. Lines that are not JSON objects (a
// console-formatted log, a stack trace) come back as a plain Entry whose
// Message is the raw line.
package logtail
