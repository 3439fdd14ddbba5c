package reporting

import (
	"github.com/bytedance/sonic"
)

// RenderJSON encodes the report as indented JSON with std-compatible rules
// (sorted map keys, HTML escaping).
func RenderJSON(r *Report) ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(r, "", "  ")
}
