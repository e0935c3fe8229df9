package subtitles

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"dubber/internal/fileutil"
	"dubber/internal/services"
)

// arrowSeparator is the SRT cue timing delimiter. It must never appear inside
// cue text, so Save substitutes a visually similar token.
const (
	arrowSeparator = "-->"
	arrowSafe      = "-→"
)

// Cue is one timed subtitle entry. Start and End are offsets in seconds.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Duration returns the cue's length in seconds.
func (c Cue) Duration() float64 {
	return c.End - c.Start
}

// Document is an ordered sequence of cues. Documents are treated as immutable
// once their producing stage completes; MapText returns a copy.
type Document struct {
	Cues []Cue
}

// Load parses an SRT file into a Document. Blocks must follow the
// index / timing / text / blank-line layout; malformed blocks are rejected.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	content = strings.TrimPrefix(content, "\ufeff")
	doc := &Document{}

	for _, block := range strings.Split(strings.TrimSpace(content), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		cue, err := parseBlock(block)
		if err != nil {
			return nil, err
		}
		doc.Cues = append(doc.Cues, cue)
	}
	return doc, nil
}

func parseBlock(block string) (Cue, error) {
	lines := strings.Split(block, "\n")
	if len(lines) < 2 {
		return Cue{}, blockError(block, "expected index and timing lines")
	}

	index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil || index < 1 {
		return Cue{}, blockError(block, "invalid cue index")
	}

	timing := strings.SplitN(lines[1], arrowSeparator, 2)
	if len(timing) != 2 {
		return Cue{}, blockError(block, "missing timing separator")
	}
	start, err := ParseTimecode(timing[0])
	if err != nil {
		return Cue{}, err
	}
	end, err := ParseTimecode(timing[1])
	if err != nil {
		return Cue{}, err
	}
	if end <= start {
		return Cue{}, blockError(block, "cue end not after start")
	}

	return Cue{
		Index: index,
		Start: start,
		End:   end,
		Text:  strings.TrimSpace(strings.Join(lines[2:], "\n")),
	}, nil
}

func blockError(block, reason string) error {
	summary := block
	if len(summary) > 48 {
		summary = summary[:48] + "..."
	}
	return services.Wrap(services.ErrValidation, "subtitles", "parse", fmt.Sprintf("%s in block %q", reason, summary), nil)
}

// Save serializes the document as sequentially renumbered SRT blocks and
// writes it atomically. Cue text containing the timing separator is sanitized.
func Save(doc *Document, path string) error {
	var sb strings.Builder
	for i, cue := range doc.Cues {
		start, err := FormatTimecode(cue.Start, true)
		if err != nil {
			return err
		}
		end, err := FormatTimecode(cue.End, true)
		if err != nil {
			return err
		}
		fmt.Fprintf(&sb, "%d\n%s %s %s\n%s\n\n", i+1, start, arrowSeparator, end, SanitizeText(cue.Text))
	}
	return fileutil.WriteFileAtomic(path, []byte(sb.String()), 0o644)
}

// MapText returns a new document with every cue's text replaced by f(text).
// Indices and timing are unchanged. The first error aborts the mapping.
func MapText(doc *Document, f func(string) (string, error)) (*Document, error) {
	mapped := &Document{Cues: make([]Cue, len(doc.Cues))}
	copy(mapped.Cues, doc.Cues)
	for i := range mapped.Cues {
		text, err := f(mapped.Cues[i].Text)
		if err != nil {
			return nil, err
		}
		mapped.Cues[i].Text = text
	}
	return mapped, nil
}

// SanitizeText replaces the SRT timing separator inside cue text with a
// visually similar token so serialized documents stay parseable.
func SanitizeText(text string) string {
	return strings.ReplaceAll(text, arrowSeparator, arrowSafe)
}
