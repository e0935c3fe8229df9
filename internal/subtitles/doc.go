// Package subtitles implements the SRT interchange format used between the
// transcription, translation, and synthesis stages: a timecode codec and a
// cue document with load/save/map-text operations.
package subtitles
