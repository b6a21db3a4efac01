// Package service wires the index, the MFT cold-start scan, the USN
// journal poller, and the snapshot codec into a single background
// worker plus a connection-serving loop: cold-start build, then an
// incremental watch loop, guarded by a reader-writer lock shared with
// the query path.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/containerd/log"
	"github.com/pkg/errors"

	"github.com/quickfind/quickfind/internal/config"
	"github.com/quickfind/quickfind/internal/index"
	"github.com/quickfind/quickfind/internal/metrics"
	"github.com/quickfind/quickfind/internal/mft"
	"github.com/quickfind/quickfind/internal/snapshot"
	"github.com/quickfind/quickfind/internal/usn"
	"github.com/quickfind/quickfind/internal/volume"
)

// Worker owns the live index and keeps it current: a cold-start MFT
// scan or snapshot restore, then an indefinite USN-journal poll loop.
// The worker's own index mutations take mu themselves; the query path
// (runQuery) takes the same mutex's read lock, so readers never block
// on each other, only on a writer.
type Worker struct {
	cfg config.Config

	mu        sync.RWMutex
	store     *index.Store
	journalID uint64
	latestUsn int64

	iterations int
}

// NewWorker allocates an empty Worker; Run performs the actual
// cold-start or restore.
func NewWorker(cfg config.Config) *Worker {
	return &Worker{cfg: cfg, store: index.New()}
}

// Store returns the Worker's RWMutex-guarded index, for use by the
// query path (runQuery). Callers must hold RLock (or
// Lock, for mutation) for the duration of any access to the returned
// Store.
func (w *Worker) Store() (*index.Store, *sync.RWMutex) {
	return w.store, &w.mu
}

// DriveLetter exposes the configured drive letter byte for path
// reconstruction at query time.
func (w *Worker) DriveLetter() byte {
	return w.cfg.DriveLetterByte()
}

// Run restores from a snapshot if one is present and valid, otherwise
// performs a full MFT scan, then polls the USN journal once per
// PollInterval until ctx is cancelled. It returns only on a
// non-recoverable error or context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.restoreOrBuild(ctx); err != nil {
		return err
	}

	reader, err := usn.OpenReader(w.cfg.DriveLetterByte())
	if err != nil {
		return errors.Wrap(err, "service: open usn reader")
	}
	defer reader.Close()

	cursor := usn.Cursor{JournalId: w.journalID, NextUsn: w.latestUsn}
	if cursor.JournalId == 0 {
		cursor, err = reader.Query()
		if err != nil {
			return errors.Wrap(err, "service: query usn journal")
		}
	}

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			var changes []usn.Change
			changes, cursor, err = reader.Poll(ctx, cursor)
			if err != nil {
				log.G(ctx).WithError(err).Warn("usn journal poll failed")
				continue
			}
			if len(changes) == 0 {
				continue
			}
			w.apply(changes)
			w.maybeSnapshot(ctx, cursor)
		}
	}
}

// restoreOrBuild loads the on-disk snapshot when one parses cleanly;
// any failure (missing file, bad magic, truncation) falls through to a
// full rebuild from the volume's MFT, matching a service that must
// never refuse to start because of a stale or corrupt cache file.
func (w *Worker) restoreOrBuild(ctx context.Context) error {
	path, err := w.cfg.SnapshotPath()
	if err == nil {
		if st, loadErr := snapshot.Load(path); loadErr == nil {
			w.mu.Lock()
			st.ApplyTo(w.store)
			w.journalID = st.JournalId
			w.latestUsn = st.LatestUsn
			w.mu.Unlock()
			log.G(ctx).WithField("records", len(w.store.Records)).Info("restored index from snapshot")
			metrics.IndexRecords.Set(float64(len(w.store.Records) - w.store.TombstoneCount))
			metrics.IndexTombstones.Set(float64(w.store.TombstoneCount))
			return nil
		}
	}

	log.G(ctx).Info("no usable snapshot, scanning MFT")
	return w.buildFromVolume(ctx)
}

func (w *Worker) buildFromVolume(ctx context.Context) error {
	vol, err := volume.Open(w.cfg.DriveLetterByte())
	if err != nil {
		return errors.Wrap(err, "service: open volume")
	}
	defer vol.Close()

	it, err := mft.Open(vol, w.cfg.MFTChunkSize)
	if err != nil {
		return errors.Wrap(err, "service: open mft iterator")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for {
		rec, err := it.Advance()
		if err != nil {
			break
		}
		w.store.Insert(rec.Id, rec.ParentId, rec.Attributes, rec.Name)
		metrics.BuildRecordsTotal.Inc()
	}

	metrics.IndexRecords.Set(float64(len(w.store.Records) - w.store.TombstoneCount))
	log.G(ctx).WithField("records", len(w.store.Records)).Info("mft scan complete")
	return nil
}

// apply takes the write lock once for the whole coalesced batch so a
// concurrent reader never observes a half-applied set of changes.
func (w *Worker) apply(changes []usn.Change) {
	usn.Coalesce(changes)
	live := usn.Live(changes)
	metrics.USNChangesCoalesced.Add(float64(len(changes) - len(live)))

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, c := range live {
		switch c.Kind {
		case usn.Delete:
			w.store.Delete(c.Id)
		default:
			w.store.Insert(c.Id, c.ParentId, c.Attributes, c.Name)
		}
		w.latestUsn = c.Usn
	}
	metrics.USNChangesApplied.Add(float64(len(live)))
	metrics.IndexRecords.Set(float64(len(w.store.Records) - w.store.TombstoneCount))
	metrics.IndexTombstones.Set(float64(w.store.TombstoneCount))

	w.iterations++
	if w.cfg.PruneThreshold > 0 && len(w.store.Records) > 0 {
		ratio := float64(w.store.TombstoneCount) / float64(len(w.store.Records))
		if ratio > w.cfg.PruneThreshold {
			w.store.Prune()
			metrics.IndexTombstones.Set(0)
		}
	}
}

// maybeSnapshot persists the index every SnapshotEvery iterations,
// holding only a read lock since Save never mutates the Store.
func (w *Worker) maybeSnapshot(ctx context.Context, cursor usn.Cursor) {
	w.journalID = cursor.JournalId
	if w.cfg.SnapshotEvery <= 0 || w.iterations%w.cfg.SnapshotEvery != 0 {
		return
	}

	path, err := w.cfg.SnapshotPath()
	if err != nil {
		log.G(ctx).WithError(err).Warn("snapshot path resolution failed")
		return
	}

	w.mu.RLock()
	st := snapshot.FromStore(w.store, cursor.JournalId, w.latestUsn)
	w.mu.RUnlock()

	start := time.Now()
	if err := snapshot.Save(path, st); err != nil {
		log.G(ctx).WithError(err).Warn("snapshot save failed")
		return
	}
	metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
}
