package diff

import (
	"reflect"
	"sort"
)

type Differ struct{}

// Diff returns the keys of after whose values differ from before, plus keys that
// disappeared (mapped to nil).
func (d *Differ) Diff(before, after map[string]any) map[string]any {
	delta := map[string]any{}
	for k, v := range after {
		if old, ok := before[k]; !ok || !reflect.DeepEqual(old, v) {
			delta[k] = v
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			delta[k] = nil
		}
	}
	return delta
}

// Fields lists the changed keys in order.
func (d *Differ) Fields(before, after map[string]any) []string {
	delta := d.Diff(before, after)
	keys := make([]string, 0, len(delta))
	for k := range delta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
