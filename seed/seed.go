// Package seed loads lorebook entries and story paragraphs from a YAML file.
package seed

import (
	"bytes"
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"shed/lorebook"
	"shed/shed"
	"shed/story"
)

// Entry is one lorebook entry in a seed file.
type Entry struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Text         string `yaml:"text"`
	Pattern      string `yaml:"pattern"`
	Enabled      bool   `yaml:"enabled"`
	MoltInterval *int   `yaml:"moltInterval"`
}

// File is the seed document.
type File struct {
	Entries []Entry  `yaml:"entries"`
	Story   []string `yaml:"story"`
}

// Parse decodes a seed file.
func Parse(data []byte) (File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return File{}, errors.New("seed: payload is empty")
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, errors.Wrap(err, "seed: decode")
	}
	return f, nil
}

// LoadFile reads and parses the seed file at path.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, errors.Wrapf(err, "seed: read %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return File{}, errors.Wrap(err, path)
	}
	return f, nil
}

// Result counts what Apply changed.
type Result struct {
	Created    []string
	Skipped    []string
	Paragraphs int
}

// Apply creates the entries, configures their shedding and appends the story.
// Entries whose id already exists are left untouched.
func Apply(ctx context.Context, f File, book *lorebook.Book, doc *story.Document, engine *shed.Engine) (Result, error) {
	var res Result
	for _, se := range f.Entries {
		e, err := book.Create(ctx, se.ID, se.Name, se.Text)
		if errors.Is(err, lorebook.ErrIDTaken) {
			res.Skipped = append(res.Skipped, se.ID)
			continue
		}
		if err != nil {
			return res, errors.Wrapf(err, "create entry %q", se.Name)
		}
		res.Created = append(res.Created, e.ID)

		if se.Pattern != "" {
			if err := engine.SetPattern(ctx, e.ID, se.Pattern); err != nil {
				return res, errors.Wrapf(err, "set pattern for %s", e.ID)
			}
		}
		if se.MoltInterval != nil {
			if err := engine.SetMoltInterval(ctx, e.ID, *se.MoltInterval); err != nil {
				return res, errors.Wrapf(err, "set molt interval for %s", e.ID)
			}
		}
		if se.Enabled {
			if err := engine.SetEnabled(ctx, e.ID, true); err != nil {
				return res, errors.Wrapf(err, "enable %s", e.ID)
			}
		}
	}

	if len(f.Story) > 0 {
		added, err := doc.Append(ctx, f.Story...)
		if err != nil {
			return res, err
		}
		res.Paragraphs = len(added)
	}
	return res, nil
}
