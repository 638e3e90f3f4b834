// Package assets loads audio files and impulse response libraries into
// buffers for the effect rack.
//
// Sources are http(s) URLs, file:// URLs or plain paths. WAV (integer PCM)
// and MP3 are decoded; IRLB files hold a named set of impulse responses.
package assets
