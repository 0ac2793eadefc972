// Package importer orchestrates one import run: fetch, index, repair,
// classify, generate, expand, merge, snapshot.
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Nate-Bowman/UnityFigmaBridge/internal/classify"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/figma"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/images"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/layout"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/logging"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/merge"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/metrics"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/scene"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/snapshot"
)

// DocumentSource provides the parsed document. Satisfied by
// *figma.Client; tests and offline imports feed files from disk.
type DocumentSource interface {
	GetFile(ctx context.Context, fileKey string) (*figma.File, error)
}

// ImageSource provides server-side rasterization and image-fill
// downloads. Satisfied by *figma.Client. Optional: a nil ImageSource
// skips downloads.
type ImageSource interface {
	GetRenderedImages(ctx context.Context, fileKey string, nodeIDs []string, scale float64, format string) (map[string]string, error)
	GetImageFills(ctx context.Context, fileKey string) (map[string]string, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// Importer runs the import pipeline.
type Importer struct {
	Source    DocumentSource
	Images    ImageSource     // optional
	Cache     *images.Cache   // optional, required when Images is set
	Snapshots snapshot.Store  // optional: nil disables backup merging

	FileKey      string
	Pages        []string // page ids to import; empty = all
	CenterPivot  bool
	RenderScale  float64
	RenderFormat string
}

// Result is the outcome of one import run.
type Result struct {
	RunID          string
	FileName       string
	Screens        []*scene.Node
	Components     scene.Library
	Classification *classify.Result
	Promoted       map[string]string
	Plans          map[string]*merge.Plan
}

// Run executes one full import.
func (imp *Importer) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := logging.L().With(zap.String("run_id", runID))

	res, err := imp.run(ctx, runID, log)
	if err != nil {
		metrics.RecordImportRun("error", time.Since(start))
		return nil, err
	}
	metrics.RecordImportRun("ok", time.Since(start))
	log.Info("import complete",
		zap.Int("screens", len(res.Screens)),
		zap.Int("components", len(res.Components)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (imp *Importer) run(ctx context.Context, runID string, log *zap.Logger) (*Result, error) {
	file, err := imp.Source.GetFile(ctx, imp.FileKey)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	log.Info("document fetched",
		zap.String("file", file.Name),
		zap.String("version", file.Version))

	idx := figma.BuildIndex(file.Document)
	metrics.SetNodesIndexed(idx.Len())
	log.Debug("index built", zap.Int("nodes", idx.Len()))

	missing := scene.FindMissingComponentIDs(idx)
	promoted := scene.PromoteMissingComponents(idx, missing)

	selected := make(map[string]bool, len(imp.Pages))
	for _, id := range imp.Pages {
		selected[id] = true
	}

	classifier := classify.New(selected, missing)
	classification := classifier.Classify(file.Document)
	log.Debug("classification done",
		zap.Int("tagged", len(classification.Tags)),
		zap.Int("render_ids", len(classification.RenderIDs)),
		zap.Int("image_fills", len(classification.ImageFills)))

	gen := &scene.Generator{
		Index:  idx,
		Result: classification,
		Opts:   layout.Options{CenterPivot: imp.CenterPivot},
	}

	library := gen.ComponentLibrary(file.Document)

	var screens []*scene.Node
	for _, page := range file.Document.Children {
		if len(selected) > 0 && !selected[page.ID] {
			continue
		}
		screens = append(screens, gen.Screens(page)...)
	}

	expander := &scene.Expander{
		Index:   idx,
		Library: library,
		Tags:    classification.Tags,
		Opts:    layout.Options{CenterPivot: imp.CenterPivot},
	}
	expander.ExpandLibrary()
	for _, root := range screens {
		expander.Expand(root)
	}

	if imp.Images != nil && imp.Cache != nil {
		imp.fetchImages(ctx, classification, log)
	}

	plans := make(map[string]*merge.Plan)
	merger := &merge.Merger{Assets: library}

	for _, root := range screens {
		imp.reconcile(ctx, merger, root, root.Name, plans, log)
	}
	for _, def := range library {
		imp.reconcile(ctx, merger, def, "components/"+def.Name, plans, log)
	}

	return &Result{
		RunID:          runID,
		FileName:       file.Name,
		Screens:        screens,
		Components:     library,
		Classification: classification,
		Promoted:       promoted,
		Plans:          plans,
	}, nil
}

// reconcile merges one generated root against its backup and saves the
// new snapshot. Snapshot trouble never aborts the run.
func (imp *Importer) reconcile(ctx context.Context, merger *merge.Merger, root *scene.Node, slot string, plans map[string]*merge.Plan, log *zap.Logger) {
	var backup *scene.Node

	if imp.Snapshots != nil {
		loaded, err := imp.Snapshots.Load(ctx, slot)
		metrics.RecordSnapshotOp("load", err)
		switch {
		case err == nil:
			backup = loaded
		case errors.Is(err, fs.ErrNotExist):
			log.Debug("no backup for root", zap.String("slot", slot))
		default:
			log.Warn("backup load failed, generating without merge",
				zap.String("slot", slot), zap.Error(err))
		}
	}

	plan := merger.Merge(root, backup)
	plans[slot] = plan
	log.Info("reconciled root",
		zap.String("slot", slot),
		zap.Int("created", plan.Count(merge.ActionCreate)),
		zap.Int("updated", plan.Count(merge.ActionUpdate)),
		zap.Int("preserved", plan.Count(merge.ActionPreserve)),
		zap.Int("removed", plan.Count(merge.ActionRemove)))

	if imp.Snapshots != nil {
		err := imp.Snapshots.Save(ctx, slot, root)
		metrics.RecordSnapshotOp("save", err)
		if err != nil {
			log.Warn("snapshot save failed", zap.String("slot", slot), zap.Error(err))
		}
	}
}

// fetchImages downloads server-rendered substitutes and image fills into
// the cache. Individual failures are logged and skipped.
func (imp *Importer) fetchImages(ctx context.Context, classification *classify.Result, log *zap.Logger) {
	if len(classification.RenderIDs) > 0 {
		urls, err := imp.Images.GetRenderedImages(ctx, imp.FileKey, classification.RenderIDs, imp.RenderScale, imp.RenderFormat)
		if err != nil {
			log.Warn("server render request failed", zap.Error(err))
		} else {
			imp.download(ctx, urls, log)
		}
	}

	if len(classification.ImageFills) > 0 {
		fills, err := imp.Images.GetImageFills(ctx, imp.FileKey)
		if err != nil {
			log.Warn("image fill lookup failed", zap.Error(err))
			return
		}
		wanted := make(map[string]string, len(classification.ImageFills))
		for _, ref := range classification.ImageFills {
			if u, ok := fills[ref]; ok {
				wanted[ref] = u
			} else {
				log.Warn("image fill has no download URL", zap.String("image_ref", ref))
			}
		}
		imp.download(ctx, wanted, log)
	}
}

// TODO: include the file version in cache keys so edits to an already
// rendered node bust the cache.
func (imp *Importer) download(ctx context.Context, urls map[string]string, log *zap.Logger) {
	for id, u := range urls {
		if _, ok := imp.Cache.Get(id); ok {
			continue
		}
		data, err := imp.Images.Download(ctx, u)
		if err != nil {
			log.Warn("image download failed", zap.String("id", id), zap.Error(err))
			continue
		}
		if _, err := imp.Cache.Put(id, bytes.NewReader(data)); err != nil {
			log.Warn("image cache write failed", zap.String("id", id), zap.Error(err))
		}
	}
}
