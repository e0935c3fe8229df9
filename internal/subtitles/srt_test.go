package subtitles

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadParsesCueBlocks(t *testing.T) {
	content := `1
00:00:01,000 --> 00:00:04,000
hello

2
00:00:05,250 --> 00:00:07,500
second line one
second line two
`
	path := filepath.Join(t.TempDir(), "test.srt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(doc.Cues))
	}
	if doc.Cues[0].Text != "hello" {
		t.Errorf("cue 0 text = %q, want hello", doc.Cues[0].Text)
	}
	if math.Abs(doc.Cues[0].Start-1.0) > 0.001 || math.Abs(doc.Cues[0].End-4.0) > 0.001 {
		t.Errorf("cue 0 timing = [%f, %f], want [1, 4]", doc.Cues[0].Start, doc.Cues[0].End)
	}
	if doc.Cues[1].Text != "second line one\nsecond line two" {
		t.Errorf("cue 1 text = %q", doc.Cues[1].Text)
	}
}

func TestLoadRejectsMalformedBlocks(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing timing", "1\nhello\n"},
		{"bad index", "x\n00:00:01,000 --> 00:00:02,000\nhello\n"},
		{"end before start", "1\n00:00:02,000 --> 00:00:01,000\nhello\n"},
		{"bad timestamp", "1\n00:00:zz,000 --> 00:00:02,000\nhello\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.srt")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write test file: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("Load succeeded, want error")
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	doc := &Document{Cues: []Cue{
		{Index: 4, Start: 1.0, End: 4.0, Text: "hello"},
		{Index: 9, Start: 5.25, End: 7.5, Text: "world"},
	}}
	path := filepath.Join(t.TempDir(), "out.srt")
	if err := Save(doc, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Cues) != len(doc.Cues) {
		t.Fatalf("cue count = %d, want %d", len(loaded.Cues), len(doc.Cues))
	}
	for i, cue := range loaded.Cues {
		// Save renumbers from 1 regardless of original indices.
		if cue.Index != i+1 {
			t.Errorf("cue %d index = %d, want %d", i, cue.Index, i+1)
		}
		if math.Abs(cue.Start-doc.Cues[i].Start) > 0.001 || math.Abs(cue.End-doc.Cues[i].End) > 0.001 {
			t.Errorf("cue %d timing drifted: [%f, %f]", i, cue.Start, cue.End)
		}
		if cue.Text != doc.Cues[i].Text {
			t.Errorf("cue %d text = %q, want %q", i, cue.Text, doc.Cues[i].Text)
		}
	}
}

func TestSaveSanitizesArrowToken(t *testing.T) {
	doc := &Document{Cues: []Cue{
		{Index: 1, Start: 0.5, End: 2.0, Text: "watch --> this"},
	}}
	path := filepath.Join(t.TempDir(), "arrow.srt")
	if err := Save(doc, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if strings.Count(string(data), "-->") != 1 {
		t.Fatalf("expected exactly one arrow separator (the timing line), got:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load after sanitize: %v", err)
	}
	if loaded.Cues[0].Text != "watch -→ this" {
		t.Errorf("sanitized text = %q", loaded.Cues[0].Text)
	}
}

func TestMapTextPreservesTiming(t *testing.T) {
	doc := &Document{Cues: []Cue{
		{Index: 1, Start: 1.0, End: 4.0, Text: "hello"},
		{Index: 2, Start: 5.0, End: 6.0, Text: "world"},
	}}
	mapped, err := MapText(doc, func(text string) (string, error) {
		return strings.ToUpper(text), nil
	})
	if err != nil {
		t.Fatalf("MapText: %v", err)
	}

	if mapped.Cues[0].Text != "HELLO" || mapped.Cues[1].Text != "WORLD" {
		t.Errorf("mapped texts = %q, %q", mapped.Cues[0].Text, mapped.Cues[1].Text)
	}
	for i := range mapped.Cues {
		if mapped.Cues[i].Start != doc.Cues[i].Start || mapped.Cues[i].End != doc.Cues[i].End || mapped.Cues[i].Index != doc.Cues[i].Index {
			t.Errorf("cue %d timing or index changed", i)
		}
	}
	// Original document must be untouched.
	if doc.Cues[0].Text != "hello" {
		t.Errorf("source document mutated: %q", doc.Cues[0].Text)
	}
}

func TestMapTextStopsOnError(t *testing.T) {
	doc := &Document{Cues: []Cue{
		{Index: 1, Start: 1.0, End: 4.0, Text: "hello"},
		{Index: 2, Start: 5.0, End: 6.0, Text: "world"},
	}}
	boom := errors.New("translator offline")
	calls := 0
	mapped, err := MapText(doc, func(string) (string, error) {
		calls++
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if mapped != nil {
		t.Error("mapped document returned alongside error")
	}
	if calls != 1 {
		t.Errorf("mapper invoked %d times after failure", calls)
	}
}
