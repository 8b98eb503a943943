package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Message headers.
const (
	HeaderEncoding    = "encoding"
	HeaderReportID    = "report_id"
	HeaderGeneratedAt = "generated_at"
	HeaderCanopyCount = "canopy_count"

	// EncodingLink marks a message whose value is a portable link rather than
	// project JSON.
	EncodingLink = "link"
)

// RawEvent is an unprocessed project snapshot from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ParseRawEvent decodes the project carried by a raw event. Values marked
// with the link encoding header, or share URLs, are decoded as portable links.
func ParseRawEvent(raw RawEvent) (Project, error) {
	if strings.EqualFold(raw.Headers[HeaderEncoding], EncodingLink) {
		p, err := DecodeLink(LinkFromShareURL(string(raw.Value)))
		if err != nil {
			return Project{}, fmt.Errorf("parse raw event: %w", err)
		}
		return p, nil
	}
	p, err := ParseProject(raw.Value)
	if err != nil {
		return Project{}, fmt.Errorf("parse raw event: %w", err)
	}
	return p, nil
}

// SerializeReport marshals a report context into a sink message keyed by its
// report ID.
func SerializeReport(rc ReportContext) (OutputEvent, error) {
	data, err := json.Marshal(rc)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize report context: %w", err)
	}
	return OutputEvent{
		Key:   []byte(rc.ReportID),
		Value: data,
		Headers: map[string]string{
			HeaderReportID:    rc.ReportID,
			HeaderGeneratedAt: rc.GeneratedAt.Format(time.RFC3339),
			HeaderCanopyCount: strconv.Itoa(len(rc.Canopies)),
		},
	}, nil
}
