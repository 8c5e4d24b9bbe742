// Package files discovers dated pipeline artifacts on disk. Artifact dates
// come from the file name stamp, not modification time, so re-copied files
// keep their place in the sequence.
package files

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"clinicpulse/internal/errors"
)

// SnapshotFile is one discovered roster snapshot.
type SnapshotFile struct {
	Path        string
	CaptureDate time.Time
}

// snapshotNameRe matches dated snapshot artifacts, e.g.
// 20250821_vip_snapshot.csv.
var snapshotNameRe = regexp.MustCompile(`^(\d{8})_vip_snapshot\.csv$`)

// Discovery locates dated artifacts under a snapshots directory.
type Discovery struct {
	snapshotsDir string
}

// NewDiscovery creates a discovery instance rooted at the snapshots
// directory.
func NewDiscovery(snapshotsDir string) *Discovery {
	return &Discovery{snapshotsDir: snapshotsDir}
}

// ListSnapshots returns every snapshot artifact sorted by capture date,
// oldest first. Files whose name stamp does not parse are skipped.
func (d *Discovery) ListSnapshots() ([]SnapshotFile, error) {
	entries, err := os.ReadDir(d.snapshotsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewStorageError("failed to read snapshots directory", err)
	}

	var snapshots []SnapshotFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := snapshotNameRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		captureDate, err := time.Parse("20060102", m[1])
		if err != nil {
			continue
		}
		snapshots = append(snapshots, SnapshotFile{
			Path:        filepath.Join(d.snapshotsDir, entry.Name()),
			CaptureDate: captureDate,
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CaptureDate.Before(snapshots[j].CaptureDate)
	})
	return snapshots, nil
}

// LatestPair returns the two most recent snapshots, prior first. The diff
// stage consumes exactly these two.
func (d *Discovery) LatestPair() (prior, current SnapshotFile, err error) {
	snapshots, err := d.ListSnapshots()
	if err != nil {
		return SnapshotFile{}, SnapshotFile{}, err
	}
	if len(snapshots) < 2 {
		return SnapshotFile{}, SnapshotFile{}, errors.NewMissingInputError(
			filepath.Join(d.snapshotsDir, "*_vip_snapshot.csv"), nil,
		).WithContext("found", len(snapshots))
	}
	return snapshots[len(snapshots)-2], snapshots[len(snapshots)-1], nil
}

// FindBatchFiles returns the transaction batch files in a directory, sorted
// by name. Batches are CSV or Excel drops from the EMR export.
func FindBatchFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewStorageError("failed to read batch directory", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".csv", ".xlsx", ".xlsm":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
