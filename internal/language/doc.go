// Package language normalizes language identifiers across the engines:
// CLI input accepts words ("french"), ISO 639-1, or ISO 639-2 codes, while
// whisper wants 639-1 and subtitle track naming wants display names.
package language
