// Package ffprobe wraps ffprobe's JSON output for downloaded volume media.
//
// Inspect runs ffprobe and returns a Result; Result.Duration and
// Result.AudioStream answer the two questions the transcription runner asks
// before chunking a file: how long is it and which stream carries speech.
package ffprobe
