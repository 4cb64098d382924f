package address

import (
	"github.com/spec-kit/repeat-complaints/internal/config"
	"github.com/spec-kit/repeat-complaints/internal/domain"
	"github.com/spec-kit/repeat-complaints/internal/normalize"
)

// Collector picks one address observation per record by field priority.
type Collector struct {
	priority []string
	// regionFromRecord is set when the schema maps no region text column;
	// the region field then reads the record's grouping region.
	regionFromRecord bool
}

// NewCollector builds a collector over the schema's field priority list.
func NewCollector(schema config.Schema) *Collector {
	_, mapped := schema.TextFields[config.FieldRegion]
	return &Collector{
		priority:         append([]string(nil), schema.FieldPriority...),
		regionFromRecord: !mapped,
	}
}

// Observe returns the first non-empty prioritised field of rec.
func (c *Collector) Observe(rec domain.ComplaintRecord) (string, bool) {
	for _, field := range c.priority {
		var raw string
		if field == config.FieldRegion && c.regionFromRecord {
			raw = rec.Region
		} else {
			raw = rec.Text(field)
		}
		if text := normalize.CleanText(raw); text != "" {
			return text, true
		}
	}
	return "", false
}

// Collect gathers observations for every member in time order. Repeats are
// kept since they carry support.
func (c *Collector) Collect(g domain.ComplaintGroup) []string {
	out := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		if text, ok := c.Observe(m); ok {
			out = append(out, text)
		}
	}
	return out
}
