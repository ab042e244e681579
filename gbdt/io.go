package gbdt

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// FormatVersion identifies the JSON layout written by WriteTo.
const FormatVersion = "houseprice-gbdt/1"

type document struct {
	Version string `json:"version"`
	*Booster
}

// WriteTo encodes the booster as a JSON document.
func (b *Booster) WriteTo(w io.Writer) (int64, error) {
	data, err := json.Marshal(document{Version: FormatVersion, Booster: b})
	if err != nil {
		return 0, errors.Wrap(err, "encode booster")
	}
	n, err := w.Write(data)
	return int64(n), errors.WithStack(err)
}

// Save writes the booster to path, creating parent directories.
func (b *Booster) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NewFilesystemError("mkdir", dir, err)
		}
	}

	var buf bytes.Buffer
	if _, err := b.WriteTo(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.NewFilesystemError("write", path, err)
	}
	return nil
}

// ReadBooster decodes a document produced by WriteTo.
func ReadBooster(r io.Reader) (*Booster, error) {
	doc := document{Booster: &Booster{}}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.NewParseError("booster", 0, 0, err.Error())
	}
	if doc.Version != FormatVersion {
		return nil, errors.NewParseError("booster", 0, 0, "unsupported format version "+doc.Version)
	}
	if err := doc.Booster.validate(); err != nil {
		return nil, err
	}
	return doc.Booster, nil
}

// LoadBooster reads a booster saved with Save.
func LoadBooster(path string) (*Booster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewFilesystemError("open", path, err)
	}
	defer f.Close()
	return ReadBooster(f)
}

// validate checks that every tree references existing nodes and features so
// that a corrupt file cannot cause an out-of-range panic at predict time.
func (b *Booster) validate() error {
	if b.NumFeatures < 1 {
		return errors.NewParseError("booster", 0, 0, "num_features must be positive")
	}
	for ti := range b.Trees {
		nodes := b.Trees[ti].Nodes
		if len(nodes) == 0 {
			return errors.NewParseError("booster", 0, 0, "empty tree")
		}
		for i, n := range nodes {
			if n.NodeID != i {
				return errors.NewParseError("booster", 0, 0, "node ids out of order")
			}
			if n.IsLeaf() {
				continue
			}
			if n.LeftChild <= n.NodeID || n.LeftChild >= len(nodes) ||
				n.RightChild <= n.NodeID || n.RightChild >= len(nodes) {
				return errors.NewParseError("booster", 0, 0, "tree child index out of range")
			}
			if n.SplitFeature < 0 || n.SplitFeature >= b.NumFeatures {
				return errors.NewParseError("booster", 0, 0, "split feature out of range")
			}
		}
	}
	return nil
}
