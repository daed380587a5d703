package indexer

import (
	"iter"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the target chunk length in characters. It is a soft
	// cap: a final chunk may run up to MinChunkLength past it.
	DefaultChunkSize = 500
	// DefaultChunkOverlap is how many characters each chunk re-reads from the previous one.
	DefaultChunkOverlap = 30
	// MinChunkLength is the shortest chunk worth embedding; shorter ones are dropped.
	MinChunkLength = 50
	// MinSplitLength is the cleaned length below which text is returned as a single chunk.
	MinSplitLength = 100

	// sentenceWindow bounds how far back from the cut point a sentence end is searched.
	sentenceWindow = 200
	// boundaryFloor is the fraction of the target size a boundary must lie past.
	boundaryFloor = 0.7
)

var (
	reSpaceRuns     = regexp.MustCompile(` {2,}`)
	reSpaceAroundNL = regexp.MustCompile(` *\n *`)
	reNewlineRuns   = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes raw document text:
// line endings become "\n", control characters and NUL bytes are removed,
// horizontal whitespace runs collapse to one space, three or more newlines
// collapse to two, and the result is trimmed.
func CleanText(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case unicode.IsControl(r), r == '\uFEFF':
			// dropped
		default:
			b.WriteRune(r)
		}
	}

	cleaned := reSpaceRuns.ReplaceAllString(b.String(), " ")
	cleaned = reSpaceAroundNL.ReplaceAllString(cleaned, "\n")
	cleaned = reNewlineRuns.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

// Chunker splits cleaned text into overlapping, sentence-aware chunks.
// The size is a target, not a hard limit: a tail shorter than MinChunkLength
// is folded into the chunk before it.
// A Chunker holds only configuration and is safe for concurrent use.
type Chunker struct {
	size    int
	overlap int
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) ChunkerOption {
	return func(c *Chunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) ChunkerOption {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// NewChunker creates a Chunker with the default size and overlap unless overridden.
func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{size: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(c)
	}
	// overlap must leave room to advance past the boundary floor
	if maxOverlap := int(float64(c.size) * boundaryFloor / 2); c.overlap > maxOverlap {
		c.overlap = maxOverlap
	}
	return c
}

// Size returns the target chunk size.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunks cleans text and returns its chunks as a lazy sequence.
// The sequence can be ranged over any number of times and always yields the same chunks.
func (c *Chunker) Chunks(text string) iter.Seq[string] {
	cleaned := CleanText(text)
	return func(yield func(string) bool) {
		runes := []rune(cleaned)
		c.walk(runes, func(start, end int) bool {
			return yield(strings.TrimSpace(string(runes[start:end])))
		})
	}
}

// Split returns all chunks of text.
func (c *Chunker) Split(text string) []string {
	var out []string
	for chunk := range c.Chunks(text) {
		out = append(out, chunk)
	}
	return out
}

// walk reports the rune span of every kept chunk.
func (c *Chunker) walk(runes []rune, emit func(start, end int) bool) {
	n := len(runes)
	if n == 0 {
		return
	}
	if n < MinSplitLength {
		emit(0, n)
		return
	}

	start := 0
	for start < n {
		end := start + c.size
		if end >= n {
			end = n
		} else {
			end = c.cutPoint(runes, start, end)
			// absorb a tail too short to stand on its own; the length is
			// measured the same way as the emit check below
			tail := end - c.overlap
			if tail <= start {
				tail = end
			}
			if runeLenTrimmed(runes[tail:]) < MinChunkLength {
				end = n
			}
		}

		if runeLenTrimmed(runes[start:end]) >= MinChunkLength {
			if !emit(start, end) {
				return
			}
		}

		if end >= n {
			return
		}

		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}
}

// cutPoint picks the end of the chunk starting at start with hard limit end.
// Order of preference: after a sentence end, at a space, at end.
func (c *Chunker) cutPoint(runes []rune, start, end int) int {
	floor := start + int(float64(c.size)*boundaryFloor)

	lo := end - sentenceWindow
	if lo < floor {
		lo = floor
	}
	for i := end - 1; i >= lo; i-- {
		if isSentenceEnd(runes[i]) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			return i + 1
		}
	}

	for i := end - 1; i >= floor; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}

	return end
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func runeLenTrimmed(rs []rune) int {
	i, j := 0, len(rs)
	for i < j && unicode.IsSpace(rs[i]) {
		i++
	}
	for j > i && unicode.IsSpace(rs[j-1]) {
		j--
	}
	return j - i
}

// runeLen is the character length used throughout ingestion.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
