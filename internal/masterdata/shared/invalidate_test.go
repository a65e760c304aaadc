package shared

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type bumpRecorder struct {
	brands []uuid.UUID
	err    error
}

func (b *bumpRecorder) Bump(ctx context.Context, brandID uuid.UUID) error {
	b.brands = append(b.brands, brandID)
	return b.err
}

func TestInvalidationBump(t *testing.T) {
	ctx := context.Background()
	brand := uuid.New()

	require.NotPanics(t, func() { Invalidation{}.Bump(ctx, brand) })

	rec := &bumpRecorder{}
	Invalidation{Stock: rec}.Bump(ctx, brand)
	require.Equal(t, []uuid.UUID{brand}, rec.brands)

	var buf bytes.Buffer
	rec = &bumpRecorder{err: errors.New("redis down")}
	Invalidation{Stock: rec, Logger: slog.New(slog.NewTextHandler(&buf, nil))}.Bump(ctx, brand)
	require.Contains(t, buf.String(), "stock cache invalidation")
	require.Contains(t, buf.String(), brand.String())
}
