// Package transcribe runs a speech engine over a downloaded volume.
//
// The Runner probes the media duration, cuts the audio into fixed-length mono
// 16 kHz WAV chunks with ffmpeg, hands the chunks to an Engine through a
// bounded worker pool and stitches the per-chunk results back together in
// chunk order with absolute timestamps. Callbacks are advisory: they exist
// for progress logging and never affect the result.
package transcribe
