package export

import (
	"fmt"
	"strings"

	"github.com/wypadek/karta-cli/internal/model"
)

func formatConfidence(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func joinFlaws(flaws []model.Flaw) string {
	if len(flaws) == 0 {
		return ""
	}
	parts := make([]string, len(flaws))
	for i, f := range flaws {
		parts[i] = fmt.Sprintf("%s/%s", f.Severity, f.Category)
	}
	return strings.Join(parts, "; ")
}
