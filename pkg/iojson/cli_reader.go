package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// DecodeFunc turns raw input into a value.
type DecodeFunc[T any] func(io.Reader) (T, error)

// FileReader reads a value from the file named by its flag, or from piped
// stdin when the flag is empty.
type FileReader[T any] struct {
	// Decode parses the input. Plain JSON decoding is used when nil.
	Decode DecodeFunc[T]
	// Usage overrides the flag help text.
	Usage string

	fileFlagValue string
	stdin         io.Reader
}

// Flag returns the --file/-f flag bound to the reader.
func (fr *FileReader[T]) Flag() *cli.StringFlag {
	usage := fr.Usage
	if usage == "" {
		usage = "path to JSON file (reads from stdin if not provided)"
	}
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       usage,
		Destination: &fr.fileFlagValue,
	}
}

// SetPath points the reader at a file, bypassing the flag.
func (fr *FileReader[T]) SetPath(path string) {
	fr.fileFlagValue = path
}

// Path returns the configured file, empty when reading stdin.
func (fr *FileReader[T]) Path() string {
	return fr.fileFlagValue
}

func (fr *FileReader[T]) Read() (T, error) {
	var input T

	reader, closer, err := fr.open()
	if err != nil {
		return input, err
	}
	defer closer()

	decode := fr.Decode
	if decode == nil {
		decode = decodeJSON[T]
	}

	input, err = decode(reader)
	if err != nil {
		if fr.fileFlagValue != "" {
			return input, fmt.Errorf("%s: %w", fr.fileFlagValue, err)
		}
		return input, err
	}
	return input, nil
}

func (fr *FileReader[T]) open() (io.Reader, func(), error) {
	if fr.fileFlagValue != "" {
		f, err := os.Open(fr.fileFlagValue)
		if err != nil {
			return nil, nil, fmt.Errorf("open file: %w", err)
		}
		return f, func() { _ = f.Close() }, nil
	}

	if fr.stdin != nil {
		return fr.stdin, func() {}, nil
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, nil, fmt.Errorf("no input provided (stdin is a terminal); use -f flag or pipe JSON input")
	}
	return os.Stdin, func() {}, nil
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var v T
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return v, fmt.Errorf("decode JSON: %w", err)
	}
	return v, nil
}
