// Package pipeline drives a collection from catalog listing to a validated
// transcript archive.
//
// Progress is never stored separately: every pass lists the collection
// directory, derives each volume's stage from the files present and works
// only on what is missing. Completed work is therefore skipped on restart and
// an interrupted write leaves nothing behind but a hidden temp file.
//
// A run proceeds in passes. Each pass recomputes the remaining set, tries the
// prior-transcript index, downloads missing media and transcribes downloaded
// media. Passes repeat until nothing remains, the remaining set stops
// shrinking, or the pass limit is reached. Integration then assembles every
// per-volume transcript into the archive.
package pipeline
