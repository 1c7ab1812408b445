package store

import (
	"fmt"

	json "github.com/goccy/go-json"

	"dossier-engine/internal/model"
)

func Encode(d *model.Dossier) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("encode: nil dossier")
	}
	return json.Marshal(d)
}

// Decode parses a persisted blob and backfills fields older blobs lack.
func Decode(raw []byte) (*model.Dossier, error) {
	var d model.Dossier
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode dossier: %w", err)
	}
	if d.CisCode == "" {
		return nil, fmt.Errorf("decode dossier: missing cisCode")
	}
	d.Backfill()
	return &d, nil
}
