// ABOUTME: SnapshotCoordinator owns the active snapshot and serializes rebuilds
// ABOUTME: Queries borrow the active snapshot without locks; a successful build swaps it atomically
package core

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/index"
	"github.com/harper/docqa/internal/models"
)

// BuildState reports whether a rebuild is running
type BuildState int

const (
	StateIdle BuildState = iota
	StateBuilding
)

func (s BuildState) String() string {
	if s == StateBuilding {
		return "building"
	}
	return "idle"
}

// SnapshotCoordinator holds the single active snapshot reference
type SnapshotCoordinator struct {
	active    atomic.Pointer[index.Snapshot]
	building  atomic.Bool
	builder   *IndexBuilder
	persister SnapshotPersister
	logger    *log.Logger
}

// NewSnapshotCoordinator creates a coordinator with no active snapshot.
// persister may be nil.
func NewSnapshotCoordinator(builder *IndexBuilder, persister SnapshotPersister) *SnapshotCoordinator {
	return &SnapshotCoordinator{
		builder:   builder,
		persister: persister,
		logger:    log.WithPrefix("coordinator"),
	}
}

// Active returns the current snapshot, or nil before the first build
func (c *SnapshotCoordinator) Active() *index.Snapshot {
	return c.active.Load()
}

// Acquire borrows the current snapshot for one request
func (c *SnapshotCoordinator) Acquire() *index.Lease {
	return c.active.Load().Acquire()
}

// State reports whether a rebuild is in flight
func (c *SnapshotCoordinator) State() BuildState {
	if c.building.Load() {
		return StateBuilding
	}
	return StateIdle
}

// Rebuild builds a snapshot from docs and makes it active.
// A call made while another rebuild runs returns ErrBuildInProgress at once.
// On failure the active snapshot is left untouched.
func (c *SnapshotCoordinator) Rebuild(ctx context.Context, docs []models.Document) (models.RebuildResult, error) {
	if !c.building.CompareAndSwap(false, true) {
		return models.RebuildResult{}, models.ErrBuildInProgress
	}
	defer c.building.Store(false)

	return c.build(ctx, docs)
}

// StartRebuild claims the build slot before returning, then loads documents
// and rebuilds in the background. It returns ErrBuildInProgress without
// starting anything when another build holds the slot. done, if non-nil, runs
// after the slot is released.
func (c *SnapshotCoordinator) StartRebuild(ctx context.Context, load func(ctx context.Context) ([]models.Document, error), done func(models.RebuildResult, error)) error {
	if !c.building.CompareAndSwap(false, true) {
		return models.ErrBuildInProgress
	}

	go func() {
		res, err := c.loadAndBuild(ctx, load)
		c.building.Store(false)
		if done != nil {
			done(res, err)
		}
	}()
	return nil
}

// RebuildFrom is Rebuild with documents fetched by load once the build slot
// is held, so a busy coordinator never triggers a document listing.
func (c *SnapshotCoordinator) RebuildFrom(ctx context.Context, load func(ctx context.Context) ([]models.Document, error)) (models.RebuildResult, error) {
	if !c.building.CompareAndSwap(false, true) {
		return models.RebuildResult{}, models.ErrBuildInProgress
	}
	defer c.building.Store(false)

	return c.loadAndBuild(ctx, load)
}

func (c *SnapshotCoordinator) loadAndBuild(ctx context.Context, load func(ctx context.Context) ([]models.Document, error)) (models.RebuildResult, error) {
	docs, err := load(ctx)
	if err != nil {
		return models.RebuildResult{}, fmt.Errorf("failed to list documents: %w", err)
	}
	return c.build(ctx, docs)
}

// build runs one rebuild; the caller holds the build slot
func (c *SnapshotCoordinator) build(ctx context.Context, docs []models.Document) (models.RebuildResult, error) {
	started := time.Now()
	version := c.nextVersion()

	snap, report, err := c.builder.Build(ctx, docs, version)
	if err != nil {
		c.logger.Error("rebuild failed", "version", version, "err", err)
		return models.RebuildResult{}, fmt.Errorf("rebuild version %d: %w", version, err)
	}

	c.activate(ctx, snap)
	if len(report.Warnings) > 0 {
		c.logger.Warn("rebuild skipped chunks", "version", version, "warnings", len(report.Warnings))
	}

	return models.RebuildResult{
		Version:       version,
		ChunkCount:    snap.Len(),
		DocumentCount: snap.DocumentCount(),
		WarningCount:  len(report.Warnings),
		Warnings:      report.Warnings,
		Duration:      time.Since(started),
	}, nil
}

// Adopt installs the chunks of an externally produced snapshot, such as an
// imported file, as the next version and persists it like a rebuild.
func (c *SnapshotCoordinator) Adopt(ctx context.Context, snap *index.Snapshot) (models.RebuildResult, error) {
	if snap == nil {
		return models.RebuildResult{}, models.NewInvalidArgument("cannot adopt a nil snapshot")
	}
	if !c.building.CompareAndSwap(false, true) {
		return models.RebuildResult{}, models.ErrBuildInProgress
	}
	defer c.building.Store(false)

	started := time.Now()
	version := c.nextVersion()
	adopted, err := index.NewSnapshot(version, snap.EmbeddedChunks(), started)
	if err != nil {
		return models.RebuildResult{}, fmt.Errorf("adopt version %d: %w", version, err)
	}

	c.activate(ctx, adopted)

	return models.RebuildResult{
		Version:       version,
		ChunkCount:    adopted.Len(),
		DocumentCount: adopted.DocumentCount(),
		Duration:      time.Since(started),
	}, nil
}

// activate swaps snap in and persists it; persistence failure is only logged
func (c *SnapshotCoordinator) activate(ctx context.Context, snap *index.Snapshot) {
	c.active.Store(snap)
	c.logger.Info("snapshot activated",
		"version", snap.Version(), "chunks", snap.Len(), "documents", snap.DocumentCount())

	if c.persister != nil {
		if err := c.persister.SaveSnapshot(ctx, snap); err != nil {
			c.logger.Error("failed to persist snapshot", "version", snap.Version(), "err", err)
		}
	}
}

// Restore installs a previously persisted snapshot. It is refused while a
// rebuild runs, and ignored when the active snapshot is already newer.
func (c *SnapshotCoordinator) Restore(snap *index.Snapshot) error {
	if snap == nil {
		return models.NewInvalidArgument("cannot restore a nil snapshot")
	}
	if !c.building.CompareAndSwap(false, true) {
		return models.ErrBuildInProgress
	}
	defer c.building.Store(false)

	if cur := c.active.Load(); cur != nil && cur.Version() >= snap.Version() {
		c.logger.Debug("restore skipped, active snapshot is newer",
			"active", cur.Version(), "restored", snap.Version())
		return nil
	}

	c.active.Store(snap)
	c.logger.Info("snapshot restored", "version", snap.Version(), "chunks", snap.Len())
	return nil
}

// RestoreFromPersister loads the persisted snapshot, if any, and installs it.
// It reports whether a snapshot was found.
func (c *SnapshotCoordinator) RestoreFromPersister(ctx context.Context) (bool, error) {
	if c.persister == nil {
		return false, nil
	}
	snap, err := c.persister.LoadSnapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snap == nil {
		return false, nil
	}
	if err := c.Restore(snap); err != nil {
		return false, err
	}
	return true, nil
}

// Status describes the active snapshot and build state
func (c *SnapshotCoordinator) Status() models.IndexStatus {
	status := models.IndexStatus{Building: c.building.Load()}
	snap := c.active.Load()
	if snap == nil {
		return status
	}
	status.HasActiveSnapshot = true
	status.Version = snap.Version()
	status.ChunkCount = snap.Len()
	status.DocumentCount = snap.DocumentCount()
	status.Dimension = snap.Dimension()
	status.BuiltAt = snap.BuiltAt()
	return status
}

// nextVersion is only called while the build flag is held
func (c *SnapshotCoordinator) nextVersion() uint64 {
	if cur := c.active.Load(); cur != nil {
		return cur.Version() + 1
	}
	return 1
}
