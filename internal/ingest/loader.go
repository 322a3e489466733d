// Package ingest turns local files into index documents for the embedded
// search backend.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"
)

// DefaultConcurrency bounds the number of files parsed at once.
const DefaultConcurrency = 4

// ErrUnsupportedFile is returned for extensions the loader cannot read.
var ErrUnsupportedFile = errors.New("unsupported file type")

// maxLineBytes caps a single JSON-lines record.
const maxLineBytes = 8 << 20

// Loader reads documents from JSON-lines and HTML files.
type Loader struct {
	concurrency int
	logger      *slog.Logger
}

func NewLoader(concurrency int, logger *slog.Logger) *Loader {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Loader{concurrency: concurrency, logger: logger}
}

// Supported reports whether path has an extension the loader reads.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson", ".html", ".htm":
		return true
	}
	return false
}

// Expand resolves directories to the supported files beneath them. Explicit
// file arguments are kept even when unsupported so Load can report them.
func Expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && Supported(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Load parses every file concurrently and returns the documents in file
// order. Documents without paragraphs are skipped.
func (l *Loader) Load(ctx context.Context, files []string) ([]domain.Document, error) {
	results := make([][]domain.Document, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs, err := l.loadFile(file)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var docs []domain.Document
	for _, r := range results {
		docs = append(docs, r...)
	}
	return docs, nil
}

func (l *Loader) loadFile(path string) ([]domain.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return l.loadJSONLines(path)
	case ".html", ".htm":
		doc, err := l.loadHTML(path)
		if err != nil {
			return nil, err
		}
		if len(doc.Paragraphs) == 0 {
			l.logger.Info("document_skipped", "path", path, "reason", "no paragraphs")
			return nil, nil
		}
		return []domain.Document{doc}, nil
	default:
		return nil, ErrUnsupportedFile
	}
}

func (l *Loader) loadJSONLines(path string) ([]domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []domain.Document
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var doc domain.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		doc.Paragraphs = cleanParagraphs(doc.Paragraphs)
		if doc.ID == "" || len(doc.Paragraphs) == 0 {
			l.logger.Info("document_skipped", "path", path, "line", line, "document_id", doc.ID)
			continue
		}
		if doc.StorageName == "" {
			doc.StorageName = filepath.Base(path)
		}
		doc.Title = CleanText(doc.Title)
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (l *Loader) loadHTML(path string) (domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}
	title, paragraphs, err := ParseHTML(string(raw))
	if err != nil {
		return domain.Document{}, err
	}

	base := filepath.Base(path)
	uri := path
	if abs, err := filepath.Abs(path); err == nil {
		uri = "file://" + filepath.ToSlash(abs)
	}
	if title == "" {
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return domain.Document{
		ID:          strings.TrimSuffix(base, filepath.Ext(base)),
		Title:       title,
		URI:         uri,
		StorageName: base,
		Paragraphs:  paragraphs,
	}, nil
}

func cleanParagraphs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if text := CleanText(p); text != "" {
			out = append(out, text)
		}
	}
	return out
}
