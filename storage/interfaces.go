package storage

import (
	"context"

	"fipe-garimpo/models"
)

// ResultWriter exports a qualifying result set. Exports are write-only;
// nothing reads them back into the pipeline.
type ResultWriter interface {
	Write(ctx context.Context, result models.Result) error
	Close() error
}
