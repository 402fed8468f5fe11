// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Source identifies one document to ingest: either a URL to download or a
// local file path. Per prd001-ingestion R1.1.
type Source struct {
	// URL is the download location of a PDF.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Path is a local PDF file.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Title overrides the slug-derived document title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// sourcesFile is the on-disk YAML shape of a source list.
type sourcesFile struct {
	Sources []Source `json:"sources" yaml:"sources"`
}

// LoadSources reads a YAML source list.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file %s: %w", path, err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing sources file %s: %w", path, err)
	}

	for i, s := range f.Sources {
		if s.URL == "" && s.Path == "" {
			return nil, fmt.Errorf("sources file %s: entry %d has neither url nor path", path, i)
		}
	}
	return f.Sources, nil
}

// ParseArgs turns command-line identifiers into sources. Anything that
// parses as an http(s) URL is a download, everything else a local path.
func ParseArgs(args []string) []Source {
	sources := make([]Source, 0, len(args))
	for _, a := range args {
		if u, err := url.Parse(a); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
			sources = append(sources, Source{URL: a})
			continue
		}
		sources = append(sources, Source{Path: a})
	}
	return sources
}

// Slug derives the document ID from a source: the base filename without
// extension, lowercased, with runs of non-alphanumerics collapsed to
// single dashes. Per prd001-ingestion R1.2.
func (s Source) Slug() string {
	var base string
	if s.URL != "" {
		if u, err := url.Parse(s.URL); err == nil {
			base = path.Base(u.Path)
		} else {
			base = path.Base(s.URL)
		}
	} else {
		base = filepath.Base(s.Path)
	}
	base = strings.TrimSuffix(base, path.Ext(base))

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// DisplayTitle is the explicit title when given, otherwise the slug with
// dashes replaced by spaces.
func (s Source) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return strings.ReplaceAll(s.Slug(), "-", " ")
}
