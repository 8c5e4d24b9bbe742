package ingest

import (
	"context"
	"log/slog"

	"clinicpulse/internal/errors"
)

// tagFields resolves the standalone patient tag export, which carries only an
// identifier and a tag column.
func tagFields() FieldSynonyms {
	return FieldSynonyms{
		FieldPatientID:  {{"patient", "id"}, {"patient", "no"}, {"chart", "no"}, {"id"}},
		FieldPatientTag: {{"tag"}, {"label"}, {"category"}},
	}
}

// ReadTagTable loads the latest patient tag export into a patient_id to tag
// map. Later rows for the same patient win, matching the export's
// newest-last ordering.
func ReadTagTable(ctx context.Context, logger *slog.Logger, path string) (map[string]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	headers, rows, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, errors.NewParsingError("tag file has no header row", nil).WithContext("path", path)
	}

	colMap, err := ResolveColumns(headers, tagFields(), []Field{FieldPatientID, FieldPatientTag})
	if err != nil {
		return nil, err
	}

	tags := make(map[string]string, len(rows))
	for _, row := range rows {
		id := CleanPatientID(colMap.Value(row, FieldPatientID))
		tag := colMap.Value(row, FieldPatientTag)
		if id == "" || tag == "" {
			continue
		}
		tags[id] = tag
	}

	logger.InfoContext(ctx, "loaded patient tag table",
		slog.String("path", path),
		slog.Int("tag_count", len(tags)))

	return tags, nil
}
