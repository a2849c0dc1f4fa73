package sink

import (
	"context"
	"fmt"
	"io"

	"newsharvest/internal/domain"
	"newsharvest/internal/models"
)

const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatS3    = "s3"
)

// New opens the sink for one site according to cfg.Format. jsonl goes to stdout.
func New(ctx context.Context, cfg models.OutputConfig, site string, stdout io.Writer) (domain.Sink, error) {
	switch cfg.Format {
	case "", FormatJSON:
		return NewJSONFile(cfg.Dir, site)
	case FormatJSONL:
		return NewJSONLines(stdout), nil
	case FormatS3:
		client, err := NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return NewS3(client, cfg.S3, site)
	default:
		return nil, fmt.Errorf("unknown output format %q", cfg.Format)
	}
}
