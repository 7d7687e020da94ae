// Package sequence acquires nucleotide sequences from FASTA text.
//
// Input may be a plain file, a gzip-compressed file (detected by its magic
// bytes, not its extension) or standard input. Header lines starting with
// '>' and blank lines are skipped; the remaining lines are concatenated and
// upper-cased. In clean mode every symbol outside A/C/T/G is dropped; in
// strict mode the first such symbol is an error carrying its position.
package sequence

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/nvandessel/tie-engine/internal/constants"
	"github.com/nvandessel/tie-engine/internal/models"
	"github.com/nvandessel/tie-engine/internal/sanitize"
)

var (
	// ErrEmptySequence is returned when no nucleotide survives reading.
	ErrEmptySequence = errors.New("empty sequence")

	// ErrTooLarge is returned when the decompressed input exceeds the limit.
	ErrTooLarge = errors.New("sequence exceeds size limit")
)

// Stdin is the path that selects standard input.
const Stdin = "-"

var gzipMagic = []byte{0x1f, 0x8b}

// Options controls acquisition.
type Options struct {
	// Strict rejects symbols outside A/C/T/G instead of dropping them.
	Strict bool

	// MaxBytes caps the decompressed FASTA text. Zero means the default.
	MaxBytes int64
}

// Source describes a loaded sequence.
type Source struct {
	// Name is the path it was read from, or "-" for stdin.
	Name string `json:"name"`

	// Header is the first FASTA header line without the '>', sanitized.
	Header string `json:"header,omitempty"`

	// Sequence is the cleaned upper-case nucleotide string.
	Sequence string `json:"-"`

	// Dropped counts symbols removed in clean mode.
	Dropped int `json:"dropped"`

	// Checksum is "sha256:<hex>" of Sequence.
	Checksum string `json:"checksum"`
}

// Load reads path ("-" for stdin) and returns the cleaned sequence.
func Load(path string, opts Options) (*Source, error) {
	var r io.Reader
	if path == Stdin {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening sequence file: %w", err)
		}
		defer f.Close()
		r = f
	}

	src, err := ReadFASTA(r, opts)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	src.Name = path
	return src, nil
}

// ReadFASTA parses FASTA text from r, transparently decompressing gzip.
func ReadFASTA(r io.Reader, opts Options) (*Source, error) {
	limit := opts.MaxBytes
	if limit <= 0 {
		limit = constants.DefaultMaxSequenceBytes
	}

	br := bufio.NewReader(r)
	magic, err := br.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("peeking input: %w", err)
	}
	var text io.Reader = br
	if bytes.Equal(magic, gzipMagic) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer gz.Close()
		text = gz
	}

	// Read one byte past the limit so an oversize input is detectable.
	data, err := io.ReadAll(io.LimitReader(text, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}

	var (
		header string
		raw    strings.Builder
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if header == "" {
				header = sanitize.Header(line[1:])
			}
			continue
		}
		raw.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning input: %w", err)
	}

	seq := raw.String()
	dropped := 0
	if opts.Strict {
		seq = upperASCII(seq)
		if err := Validate(seq); err != nil {
			return nil, err
		}
	} else {
		cleaned := Clean(seq)
		dropped = len(seq) - len(cleaned)
		seq = cleaned
	}
	if seq == "" {
		return nil, ErrEmptySequence
	}

	return &Source{
		Header:   header,
		Sequence: seq,
		Dropped:  dropped,
		Checksum: Checksum(seq),
	}, nil
}

// Clean upper-cases s and keeps only A, C, T and G.
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		if models.Letter(c).Valid() {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// upperASCII upper-cases ASCII letters only, leaving every other byte where
// it was so positions still refer to the input.
func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// Validate reports the first symbol of s outside the nucleotide alphabet.
// Positions are byte offsets into s.
func Validate(s string) error {
	for i := 0; i < len(s); i++ {
		if !models.Letter(s[i]).Valid() {
			r, _ := utf8.DecodeRuneInString(s[i:])
			return fmt.Errorf("%w %q at position %d", models.ErrInvalidSymbol, r, i)
		}
	}
	return nil
}

// Checksum returns "sha256:<hex>" of s.
func Checksum(s string) string {
	sum := sha256.Sum256([]byte(s))
	return "sha256:" + hex.EncodeToString(sum[:])
}
