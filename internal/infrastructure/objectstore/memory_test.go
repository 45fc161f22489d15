package objectstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Victor-armando18/service-clearance/internal/domain"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	data := []byte("%PDF-1.4")
	require.NoError(t, m.Put(ctx, "/s-1/invoice.pdf", data, "application/pdf"))
	data[0] = 'X'

	got, err := m.Get(ctx, "s-1/invoice.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), got)

	require.NoError(t, m.Delete(ctx, "s-1/invoice.pdf"))
	_, err = m.Get(ctx, "s-1/invoice.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, m.Delete(ctx, "s-1/invoice.pdf"), domain.ErrNotFound)

	assert.Error(t, m.Put(ctx, " / ", nil, ""))
}
