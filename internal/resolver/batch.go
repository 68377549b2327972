// file: internal/resolver/batch.go
// version: 1.0.0
// guid: 08b9c0d1-e2f3-a4b5-c6d7-e8f9a0b1c2d3

package resolver

import (
	"context"
	"io/fs"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/jdfalk/audiobook-asin/internal/localize"
)

// audioExtensions are the file types scanned in a library directory.
var audioExtensions = map[string]bool{
	".m4b": true, ".m4a": true, ".mp3": true,
	".aac": true, ".ogg": true, ".flac": true, ".wma": true,
}

// BatchItem pairs one library file with its lookup outcome.
type BatchItem struct {
	Path   string
	Result *LookupResult
	Err    error
}

// FindBooks walks a library root and returns the audio files to resolve,
// sorted for stable batch ordering. Unreadable subtrees are skipped with a
// warning rather than aborting the walk.
func FindBooks(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("Warning: skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if audioExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// ResolveBatch resolves many library files with a pool of workers, each
// running its own sequential lookup state machine. The cache and the rate
// controller are shared and internally synchronized. Cancellation is
// honored between books: a worker finishes its current lookup and stops,
// and books never started are returned with the context error. Items come
// back in input order; completion order across workers is unspecified.
func (r *Resolver) ResolveBatch(ctx context.Context, paths []string, workers int, opts Options, showProgress bool) []BatchItem {
	if workers < 1 {
		workers = 1
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	items := make([]BatchItem, len(paths))
	jobs := make(chan int)

	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(int64(len(paths)), "resolving")
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				q := localize.Extract(paths[i])
				res, err := r.Resolve(ctx, q, opts)
				items[i] = BatchItem{Path: paths[i], Result: res, Err: err}
				if bar != nil {
					_ = bar.Add(1)
				}
			}
		}()
	}

	// Feed jobs until done or cancelled; checkpoint is one book.
	fed := len(paths)
feed:
	for i := range paths {
		select {
		case <-ctx.Done():
			fed = i
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	// Books never handed to a worker still get an item, carrying the
	// cancellation cause.
	for i := fed; i < len(paths); i++ {
		items[i] = BatchItem{Path: paths[i], Err: ctx.Err()}
	}

	if bar != nil {
		_ = bar.Finish()
	}
	return items
}
