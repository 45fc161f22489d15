package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	l, err := New(false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.DebugLevel))

	l, err = New(true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))
}

func TestShipmentFields(t *testing.T) {
	fields := Shipment("s-1", "HS Approved")
	require.Len(t, fields, 2)
	assert.Equal(t, "shipment_id", fields[0].Key)
	assert.Equal(t, "s-1", fields[0].String)
}
