package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Paths resolves every artifact location the pipeline reads or writes.
// All stage code goes through Paths; nothing builds artifact names ad hoc.
type Paths struct {
	DataDir      string
	ReportsDir   string
	SnapshotsDir string
	LogsDir      string
}

// Artifact file names. Dated artifacts use the compact YYYYMMDD stamp the
// operators are used to from the original weekly workflow.
const (
	ledgerFileName   = "patient_ledger.csv"
	summaryPattern   = "%s_summary.csv"
	snapshotPattern  = "%s_vip_snapshot.csv"
	diffPattern      = "%s_vip_changes.csv"
	kpiPattern       = "KPI_%s_%s.csv"
	classifyPattern  = "%s_classified.xlsx"
	audiencePattern  = "%s_audience_%s.xlsx"
	artifactDateShort = "20060102"
)

// NewPaths builds a Paths from configuration, filling defaults for any
// directory left empty.
func NewPaths(cfg PathsConfig) *Paths {
	p := &Paths{
		DataDir:      cfg.DataDir,
		ReportsDir:   cfg.ReportsDir,
		SnapshotsDir: cfg.SnapshotsDir,
		LogsDir:      cfg.LogsDir,
	}
	if p.DataDir == "" {
		p.DataDir = "data"
	}
	if p.ReportsDir == "" {
		p.ReportsDir = filepath.Join(p.DataDir, "reports")
	}
	if p.SnapshotsDir == "" {
		p.SnapshotsDir = filepath.Join(p.DataDir, "snapshots")
	}
	if p.LogsDir == "" {
		p.LogsDir = "logs"
	}
	return p
}

// EnsureDirectories creates every directory the pipeline writes into.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ReportsDir, p.SnapshotsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the cumulative ledger CSV location.
func (p *Paths) LedgerPath() string {
	return filepath.Join(p.DataDir, ledgerFileName)
}

// SummaryPath returns the dated per-patient summary artifact location.
func (p *Paths) SummaryPath(asOf time.Time) string {
	return filepath.Join(p.ReportsDir, fmt.Sprintf(summaryPattern, asOf.Format(artifactDateShort)))
}

// SnapshotPath returns the dated VIP roster snapshot location.
func (p *Paths) SnapshotPath(captureDate time.Time) string {
	return filepath.Join(p.SnapshotsDir, fmt.Sprintf(snapshotPattern, captureDate.Format(artifactDateShort)))
}

// DiffPath returns the dated roster transition report location.
func (p *Paths) DiffPath(asOf time.Time) string {
	return filepath.Join(p.ReportsDir, fmt.Sprintf(diffPattern, asOf.Format(artifactDateShort)))
}

// KPIPath returns the KPI rollup location for an inclusive month range.
func (p *Paths) KPIPath(startMonth, endMonth string) string {
	return filepath.Join(p.ReportsDir, fmt.Sprintf(kpiPattern, startMonth, endMonth))
}

// ClassifiedWorkbookPath returns the dated classified-master workbook location.
func (p *Paths) ClassifiedWorkbookPath(asOf time.Time) string {
	return filepath.Join(p.ReportsDir, fmt.Sprintf(classifyPattern, asOf.Format(artifactDateShort)))
}

// AudienceWorkbookPath returns the dated workbook location for one outreach
// audience segment.
func (p *Paths) AudienceWorkbookPath(asOf time.Time, segment string) string {
	return filepath.Join(p.ReportsDir, fmt.Sprintf(audiencePattern, asOf.Format(artifactDateShort), segment))
}

// LogPath returns a file path under the logs directory.
func (p *Paths) LogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}
