package invoice

import (
	"fmt"
	"strings"
)

// ItemsSummary renders the ordered items as one newline-joined cell,
// "name xQUANTITY @ PRICE" per line. It is computed once per
// transaction and shared by whichever audit row is emitted.
func ItemsSummary(items []LineItem) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%s x%d @ %s", item.Name, item.Quantity, item.UnitPrice.String())
	}
	return strings.Join(lines, "\n")
}
