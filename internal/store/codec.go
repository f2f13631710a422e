package store

import (
	"encoding/json"
	"fmt"

	"github.com/jengzang/sitetrack-backend-go/internal/models"
)

// EncodeRecords serializes a record set for a snapshot slot
func EncodeRecords(recs []models.SegmentRecord) ([]byte, error) {
	if recs == nil {
		recs = []models.SegmentRecord{}
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return b, nil
}

// DecodeRecords parses a snapshot slot payload
func DecodeRecords(payload []byte) ([]models.SegmentRecord, error) {
	var recs []models.SegmentRecord
	if err := json.Unmarshal(payload, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return recs, nil
}
