package gerrit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// xssiPrefix guards every Gerrit JSON response.
const xssiPrefix = ")]}'"

// ErrEmptyInput is returned when there is nothing to decode.
var ErrEmptyInput = errors.New("empty input")

var documentKeys = []string{"comments", "drafts", "robot_comments"}

// Decode reads change comments from r. It accepts either a combined document
// with comments, drafts and robot_comments keys, or the bare path-keyed map
// returned by a single comments endpoint, which is treated as published
// comments. A leading XSSI guard line is ignored.
func Decode(r io.Reader) (ChangeComments, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ChangeComments{}, fmt.Errorf("read: %w", err)
	}

	data = bytes.TrimSpace(data)
	data = bytes.TrimSpace(bytes.TrimPrefix(data, []byte(xssiPrefix)))
	if len(data) == 0 {
		return ChangeComments{}, ErrEmptyInput
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return ChangeComments{}, fmt.Errorf("decode comments: %w", err)
	}

	var cc ChangeComments
	if isDocument(raw) {
		if err := json.Unmarshal(data, &cc); err != nil {
			return ChangeComments{}, fmt.Errorf("decode comments: %w", err)
		}
	} else if err := json.Unmarshal(data, &cc.Comments); err != nil {
		return ChangeComments{}, fmt.Errorf("decode comments: %w", err)
	}

	return cc, nil
}

func isDocument(raw map[string]json.RawMessage) bool {
	for _, k := range documentKeys {
		if _, ok := raw[k]; ok {
			return true
		}
	}
	return false
}
