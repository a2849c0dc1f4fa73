package xref

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	filteredMarker = "filtered"
	defaultWorkers = 4
)

type Options struct {
	Workers int

	// Skip lists substrings; files whose name contains any of them are ignored.
	Skip []string
}

// FileSummary reports the outcome for one input file. Output is empty when
// nothing matched.
type FileSummary struct {
	File     string
	Articles int
	Retained int
	Output   string
	Elapsed  time.Duration
	Err      error
}

// OutputName maps spiegel.json to spiegel_filtered.json.
func OutputName(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file)) + "_" + filteredMarker + ".json"
}

// Eligible reports whether a file in the data dir should be processed.
func Eligible(name string, skip []string) bool {
	if !strings.EqualFold(filepath.Ext(name), ".json") || strings.Contains(name, filteredMarker) {
		return false
	}
	for _, s := range skip {
		if s != "" && strings.Contains(name, s) {
			return false
		}
	}
	return true
}

// ProcessDir filters every eligible file in dir concurrently. A failing file is
// reported in its summary and does not stop the others. Summaries are sorted by
// file name.
func ProcessDir(ctx context.Context, dir string, f *Filter, opts Options, slog *zap.SugaredLogger) ([]FileSummary, error) {
	if slog == nil {
		slog = zap.NewNop().Sugar()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && Eligible(e.Name(), opts.Skip) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	workers := opts.Workers
	if workers < 1 {
		workers = defaultWorkers
	}
	summaries := make([]FileSummary, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			summaries[i] = processFile(dir, name, f)
			if s := summaries[i]; s.Err != nil {
				slog.Warnf("can't process %s: %s", name, s.Err)
			} else {
				slog.Infow("file filtered", "file", name, "articles", s.Articles, "retained", s.Retained)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summaries, err
	}
	return summaries, nil
}

func processFile(dir, name string, f *Filter) (sum FileSummary) {
	start := time.Now()
	sum.File = name
	defer func() { sum.Elapsed = time.Since(start) }()

	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		sum.Err = err
		return sum
	}
	var articles []Article
	if err := json.Unmarshal(b, &articles); err != nil {
		sum.Err = fmt.Errorf("decode %s: %w", name, err)
		return sum
	}
	sum.Articles = len(articles)

	matches := f.Apply(articles)
	sum.Retained = len(matches)
	if len(matches) == 0 {
		return sum
	}

	out := filepath.Join(dir, OutputName(name))
	if err := writeMatches(out, matches); err != nil {
		sum.Err = err
		return sum
	}
	sum.Output = out
	return sum
}

func writeMatches(path string, matches []Match) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(matches); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
