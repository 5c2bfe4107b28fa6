// Package whisperx runs WhisperX through uvx as a transcription engine.
//
// Each call transcribes one WAV chunk and converts WhisperX's word-aligned
// JSON into token-timed entries. Words WhisperX could not align (typically
// numerals) are given interpolated times from their neighbours.
//
// Configuration options (model, CUDA, VAD method, language) are passed via
// Config.
package whisperx
