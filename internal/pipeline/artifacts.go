package pipeline

import (
	"fmt"
	"path/filepath"
)

// artifacts derives every stage output path from the job directory and the
// source file's base name.
type artifacts struct {
	dir  string
	base string
}

func (a artifacts) audioPath() string {
	return filepath.Join(a.dir, a.base+".wav")
}

func (a artifacts) subtitlePath() string {
	return filepath.Join(a.dir, a.base+".srt")
}

func (a artifacts) translatedSubtitlePath(lang string) string {
	return filepath.Join(a.dir, fmt.Sprintf("%s.%s.srt", a.base, lang))
}

// languagePath holds the detected source language so skipped reruns can
// recover it without re-transcribing.
func (a artifacts) languagePath() string {
	return filepath.Join(a.dir, a.base+".lang")
}

func (a artifacts) clipsDir() string {
	return filepath.Join(a.dir, "clips")
}

func (a artifacts) clipPath(n int) string {
	return filepath.Join(a.clipsDir(), fmt.Sprintf("%04d.wav", n))
}

func (a artifacts) dubTrackPath() string {
	return filepath.Join(a.dir, a.base+".dub.wav")
}

func (a artifacts) videoPath() string {
	return filepath.Join(a.dir, a.base+".dubbed.mp4")
}

func (a artifacts) bundlePath() string {
	return filepath.Join(a.dir, a.base+".bundle.zip")
}
