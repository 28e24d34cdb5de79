package dictionary

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"os"
)

// artifactVersion is written as a single byte ahead of the gob stream
// so Load can reject a file built by an incompatible Save.
const artifactVersion byte = 1

// Save writes the artifact to path as a versioned gob stream: one
// version byte, then a gob encoding of the Artifact. gob is
// self-describing (field names and types travel with the data), which
// covers the length-prefixed/self-describing requirement on its own;
// the version byte guards against a future change to this package's
// artifact shape that gob's own wire format wouldn't catch.
func (a *Artifact) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.Write([]byte{artifactVersion}); err != nil {
		return err
	}
	if err := gob.NewEncoder(w).Encode(a); err != nil {
		return err
	}
	return w.Flush()
}

// Load reads an artifact previously written by Save.
func Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading artifact version: %w", err)
	}
	if version != artifactVersion {
		return nil, fmt.Errorf("unsupported dictionary artifact version %d (expected %d)", version, artifactVersion)
	}

	var a Artifact
	if err := gob.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decoding dictionary artifact: %w", err)
	}
	return &a, nil
}
