// Package analyzer extracts code entities (files, classes, functions,
// call edges) from source files into the code graph. The versioning core
// treats it as an opaque collaborator: given a path and a graph handle,
// it emits graph mutations.
package analyzer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/codegraph/codegraph/internal/codegraph"
)

// Graph is the slice of the code graph an analyzer reads and writes.
// *codegraph.Graph satisfies it; tests substitute recorders.
type Graph interface {
	AddFile(ctx context.Context, f *codegraph.File) error
	AddClass(ctx context.Context, c *codegraph.Class) error
	AddFunction(ctx context.Context, f *codegraph.Function) error
	ConnectEntities(ctx context.Context, relation string, srcID, destID int64) error
	FunctionCallsFunction(ctx context.Context, callerID, calleeID int64, pos int) error
	GetFunctionByName(ctx context.Context, name string) (*codegraph.Function, error)
}

// LanguageAnalyzer extracts entities for one language. Extraction is
// two-phase so call edges can resolve declarations from other files.
type LanguageAnalyzer interface {
	Extensions() []string
	DeclarePass(ctx context.Context, root, rel string, g Graph) error
	CallPass(ctx context.Context, root, rel string, g Graph) error
}

// SourceAnalyzer dispatches files to language analyzers by extension.
type SourceAnalyzer struct {
	langs  map[string]LanguageAnalyzer
	logger *slog.Logger

	// Workers caps concurrent file analyses in AnalyzeRepository.
	// Zero means one worker per CPU.
	Workers int
}

// NewSourceAnalyzer returns an analyzer with all built-in languages
// registered.
func NewSourceAnalyzer() *SourceAnalyzer {
	sa := &SourceAnalyzer{
		langs:  make(map[string]LanguageAnalyzer),
		logger: slog.Default().With("component", "analyzer"),
	}
	sa.register(NewPythonAnalyzer())
	return sa
}

func (sa *SourceAnalyzer) register(la LanguageAnalyzer) {
	for _, ext := range la.Extensions() {
		sa.langs[ext] = la
	}
}

// SupportedTypes returns the file extensions with a registered analyzer.
func (sa *SourceAnalyzer) SupportedTypes() []string {
	exts := make([]string, 0, len(sa.langs))
	for ext := range sa.langs {
		exts = append(exts, ext)
	}
	return exts
}

// AnalyzeFile analyzes a single repository-relative path against the
// graph. Unreadable or unparseable input is an error; the caller decides
// whether that is fatal.
func (sa *SourceAnalyzer) AnalyzeFile(ctx context.Context, root, rel string, g Graph) error {
	la, ok := sa.langs[filepath.Ext(rel)]
	if !ok {
		return fmt.Errorf("unsupported file type: %s", rel)
	}

	sa.logger.Debug("analyzing file", "path", rel)
	if err := la.DeclarePass(ctx, root, rel, g); err != nil {
		return err
	}
	return la.CallPass(ctx, root, rel, g)
}

// AnalyzeRepository analyzes every supported file under root, skipping
// ignored paths. Declarations land first across all files, then call
// edges, so cross-file calls resolve. Files within a pass are analyzed
// in parallel; each touches a disjoint graph subregion.
func (sa *SourceAnalyzer) AnalyzeRepository(ctx context.Context, root string, ignored func(string) bool, g Graph) error {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if _, ok := sa.langs[filepath.Ext(rel)]; !ok {
			return nil
		}
		if ignored != nil && ignored(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}

	sa.logger.Info("analyzing repository", "root", root, "files", len(files))

	passes := []func(context.Context, string, string, Graph) error{
		func(ctx context.Context, root, rel string, g Graph) error {
			return sa.langs[filepath.Ext(rel)].DeclarePass(ctx, root, rel, g)
		},
		func(ctx context.Context, root, rel string, g Graph) error {
			return sa.langs[filepath.Ext(rel)].CallPass(ctx, root, rel, g)
		},
	}

	workers := sa.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	for _, pass := range passes {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(workers)
		for _, rel := range files {
			eg.Go(func() error {
				return pass(egCtx, root, rel, g)
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
	}
	return nil
}
