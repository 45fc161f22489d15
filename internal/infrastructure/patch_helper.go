package infrastructure

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/Victor-armando18/service-clearance/internal/domain"
)

// Campos que um patch RFC 6902 pode alterar; o resto só muda por transição.
var editablePaths = []string{"/sender/", "/receiver/", "/product/"}

// CreateRecordPatch returns the JSON merge patch (RFC 7386) from before to after.
func CreateRecordPatch(before, after domain.ShipmentRecord) ([]byte, error) {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return nil, err
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return nil, err
	}
	return jsonpatch.CreateMergePatch(beforeJSON, afterJSON)
}

// ApplyRecordPatch applies a merge patch to a stored record.
func ApplyRecordPatch(original domain.ShipmentRecord, patch []byte) (domain.ShipmentRecord, error) {
	originalJSON, err := json.Marshal(original)
	if err != nil {
		return original, err
	}
	modified, err := jsonpatch.MergePatch(originalJSON, patch)
	if err != nil {
		return original, fmt.Errorf("failed to apply merge patch: %w", err)
	}
	var updated domain.ShipmentRecord
	if err := json.Unmarshal(modified, &updated); err != nil {
		return original, err
	}
	return updated, nil
}

// ApplyDetailOps applies RFC 6902 operations limited to party and product fields.
func ApplyDetailOps(original domain.ShipmentRecord, ops []byte) (domain.ShipmentRecord, error) {
	patch, err := jsonpatch.DecodePatch(ops)
	if err != nil {
		return original, fmt.Errorf("failed to decode patch: %w", err)
	}
	for _, op := range patch {
		path, err := op.Path()
		if err != nil {
			return original, fmt.Errorf("failed to decode patch: %w", err)
		}
		if !editable(path) {
			return original, fmt.Errorf("%w: path %s is not editable", domain.ErrInvalidTransition, path)
		}
		if from, err := op.From(); err == nil && from != "" && !editable(from) {
			return original, fmt.Errorf("%w: path %s is not editable", domain.ErrInvalidTransition, from)
		}
	}

	originalJSON, err := json.Marshal(original)
	if err != nil {
		return original, err
	}
	modified, err := patch.Apply(originalJSON)
	if err != nil {
		return original, fmt.Errorf("failed to apply patch: %w", err)
	}

	var updated domain.ShipmentRecord
	if err := json.Unmarshal(modified, &updated); err != nil {
		return original, err
	}
	return updated, nil
}

func editable(path string) bool {
	for _, p := range editablePaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
