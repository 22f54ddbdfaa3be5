package mining

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPair is returned when a JSON pair is not a two-element array.
var ErrMalformedPair = errors.New("pair must be a two-element array")

// EditPair is a removed line and the added line that replaced it, without
// diff markers.
type EditPair struct {
	Removed string
	Added   string
}

// MarshalJSON encodes the pair as ["removed", "added"].
func (p EditPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Removed, p.Added})
}

// UnmarshalJSON decodes a two-element string array.
func (p *EditPair) UnmarshalJSON(data []byte) error {
	removed, added, err := decodeTuple(data)
	if err != nil {
		return err
	}

	p.Removed, p.Added = removed, added

	return nil
}

// PathPair is the old and new path of the file an EditPair came from.
type PathPair struct {
	Old string
	New string
}

// MarshalJSON encodes the pair as ["old", "new"].
func (p PathPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Old, p.New})
}

// UnmarshalJSON decodes a two-element string array.
func (p *PathPair) UnmarshalJSON(data []byte) error {
	oldPath, newPath, err := decodeTuple(data)
	if err != nil {
		return err
	}

	p.Old, p.New = oldPath, newPath

	return nil
}

func decodeTuple(data []byte) (first, second string, err error) {
	var tuple []string

	err = json.Unmarshal(data, &tuple)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrMalformedPair, err)
	}

	if len(tuple) != 2 {
		return "", "", fmt.Errorf("%w: got %d elements", ErrMalformedPair, len(tuple))
	}

	return tuple[0], tuple[1], nil
}

// CommitRecord is one accepted commit. Diffs and Paths are parallel: Paths[i]
// names the file Diffs[i] was found in.
type CommitRecord struct {
	Repo    string     `json:"repo"`
	Commit  string     `json:"commit"`
	Message string     `json:"message"`
	Diffs   []EditPair `json:"diffs"`
	Paths   []PathPair `json:"paths"`
}
