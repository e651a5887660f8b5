package ingest

import (
	"strconv"
	"strings"

	"github.com/talentvec/talentvec/pkg/fields"
	"github.com/talentvec/talentvec/pkg/logger"
)

// SelectModules resolves a module-selection expression against the fleet.
// "all", "0", and the empty string select everything. Otherwise the
// expression is a comma-separated mix of module names and 1-based indexes.
// Unknown tokens warn and are skipped.
func SelectModules(expr string) []fields.Extractor {
	fleet := fields.Fleet()
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "all" || expr == "0" {
		return fleet
	}

	byName := make(map[string]int, len(fleet))
	for i, m := range fleet {
		byName[m.Name] = i
	}

	log := logger.GetLogger()
	seen := make(map[int]bool)
	var selected []fields.Extractor
	for _, token := range strings.Split(expr, ",") {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}

		idx := -1
		if n, err := strconv.Atoi(token); err == nil {
			if n >= 1 && n <= len(fleet) {
				idx = n - 1
			}
		} else if i, ok := byName[token]; ok {
			idx = i
		}

		if idx < 0 {
			log.Warn("Unknown module in selection expression, skipping", "token", token)
			continue
		}
		if !seen[idx] {
			seen[idx] = true
			selected = append(selected, fleet[idx])
		}
	}
	return selected
}
