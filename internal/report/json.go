package report

import (
	"os"

	analyzererrors "log-analyzer/internal/errors"
	"log-analyzer/internal/models"
)

// ExportJSON writes the snapshot as indented JSON to path.
func ExportJSON(s *models.Snapshot, path string) error {
	data, err := s.ToJSON()
	if err != nil {
		return analyzererrors.NewReportExportError(path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return analyzererrors.NewReportExportError(path, err)
	}
	return nil
}

// LoadJSON reads a snapshot previously written by ExportJSON.
func LoadJSON(path string) (*models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, analyzererrors.NewIngestReadError("file:"+path, err)
	}
	s, err := models.SnapshotFromJSON(data)
	if err != nil {
		return nil, analyzererrors.NewIngestReadError("file:"+path, err)
	}
	return s, nil
}
