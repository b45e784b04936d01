package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize bounds one line of participant input (4KB).
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "TIMBRE_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// ContentRenderer turns step content into terminal output.
type ContentRenderer func(string) (string, error)

type line struct {
	text string
	err  error
}

// lineReader reads lines on a background goroutine so a blocked read can be
// abandoned when the step's context is cancelled.
type lineReader struct {
	reader *bufio.Reader
	lines  chan line
	once   sync.Once
}

func newLineReader(r io.Reader) *lineReader {
	if r == nil {
		r = os.Stdin
	}
	return &lineReader{reader: bufio.NewReader(r)}
}

func (lr *lineReader) pump() {
	defer close(lr.lines)
	for {
		text, err := lr.reader.ReadString('\n')
		if text != "" {
			lr.lines <- line{text: text}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				lr.lines <- line{err: err}
			}
			return
		}
	}
}

// Next returns the next sanitized line without its line terminator.
func (lr *lineReader) Next(ctx context.Context) (string, error) {
	lr.once.Do(func() {
		lr.lines = make(chan line)
		go lr.pump()
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-lr.lines:
		if !ok {
			return "", io.EOF
		}
		if l.err != nil {
			return "", l.err
		}
		return SanitizeInput(strings.TrimRight(l.text, "\r\n"))
	}
}

// SanitizeInput rejects oversized or invalid UTF-8 input and strips control
// characters other than tab.
func SanitizeInput(input string) (string, error) {
	if limit := maxInputSize(); len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' {
			return -1
		}
		return r
	}, input), nil
}

func maxInputSize() int {
	if v := os.Getenv(EnvMaxInputSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultMaxInputSize
}
