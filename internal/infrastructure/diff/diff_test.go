package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffer(t *testing.T) {
	d := &Differ{}
	before := map[string]any{"status": "HS Approved", "sender_log": []any{"a"}, "reason": "x", "cost": 10.0}
	after := map[string]any{"status": "Document Approved", "sender_log": []any{"a"}, "cost": 10.0, "payment_log": map[string]any{"fee": 1.0}}

	assert.Equal(t, map[string]any{
		"status":      "Document Approved",
		"reason":      nil,
		"payment_log": map[string]any{"fee": 1.0},
	}, d.Diff(before, after))
	assert.Equal(t, []string{"payment_log", "reason", "status"}, d.Fields(before, after))
	assert.Empty(t, d.Diff(after, after))
}
