package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Logical text field names understood by the collector.
const (
	FieldComplaintAddress  = "complaint_address"
	FieldReplyContent      = "reply_content"
	FieldRegion            = "region"
	FieldComplaintContent  = "complaint_content"
	FieldReferenceLocation = "reference_location"
)

// DefaultTimestampLayout is the textual acceptance time format of the exports.
const DefaultTimestampLayout = "2006-01-02 15:04:05"

// Schema maps snapshot columns onto record fields. Column names are
// configuration; the engine never hardcodes them.
type Schema struct {
	TicketIDColumn   string `yaml:"ticket_id"`
	AcceptedAtColumn string `yaml:"accepted_at"`
	RegionColumn     string `yaml:"region"`
	SubscriberColumn string `yaml:"subscriber_number"`
	TimestampLayout  string `yaml:"timestamp_layout"`
	KeySeparator     string `yaml:"key_separator"`
	// TextFields maps logical field names to source columns.
	TextFields map[string]string `yaml:"text_fields"`
	// FieldPriority orders the fields consulted for an address observation.
	FieldPriority []string `yaml:"field_priority"`
	// ExtraSentinels are additional whole-value placeholders dropped before clustering.
	ExtraSentinels []string `yaml:"extra_sentinels"`
}

// DefaultSchema uses the logical names as column names. The region text
// field reads the free-text area column, not the grouping region.
func DefaultSchema() Schema {
	return Schema{
		TicketIDColumn:   "ticket_id",
		AcceptedAtColumn: "accepted_at",
		RegionColumn:     "region",
		SubscriberColumn: "subscriber_number",
		TimestampLayout:  DefaultTimestampLayout,
		KeySeparator:     "-",
		TextFields: map[string]string{
			FieldComplaintAddress:  FieldComplaintAddress,
			FieldReplyContent:      FieldReplyContent,
			FieldRegion:            "address_region",
			FieldComplaintContent:  FieldComplaintContent,
			FieldReferenceLocation: FieldReferenceLocation,
		},
		FieldPriority: []string{
			FieldComplaintAddress,
			FieldReplyContent,
			FieldRegion,
			FieldComplaintContent,
		},
	}
}

// LoadSchema reads a YAML schema mapping, filling unset values from DefaultSchema.
func LoadSchema(path string) (Schema, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("read schema %s: %w", path, err)
	}
	return ParseSchema(content)
}

// ParseSchema decodes a YAML schema mapping.
func ParseSchema(content []byte) (Schema, error) {
	var parsed Schema
	if err := yaml.Unmarshal(content, &parsed); err != nil {
		return Schema{}, fmt.Errorf("decode schema: %w", err)
	}
	schema := parsed.withDefaults()
	if err := schema.Validate(); err != nil {
		return Schema{}, err
	}
	return schema, nil
}

func (s Schema) withDefaults() Schema {
	def := DefaultSchema()
	if s.TicketIDColumn == "" {
		s.TicketIDColumn = def.TicketIDColumn
	}
	if s.AcceptedAtColumn == "" {
		s.AcceptedAtColumn = def.AcceptedAtColumn
	}
	if s.RegionColumn == "" {
		s.RegionColumn = def.RegionColumn
	}
	if s.SubscriberColumn == "" {
		s.SubscriberColumn = def.SubscriberColumn
	}
	if s.TimestampLayout == "" {
		s.TimestampLayout = def.TimestampLayout
	}
	if s.KeySeparator == "" {
		s.KeySeparator = def.KeySeparator
	}
	if len(s.TextFields) == 0 {
		s.TextFields = def.TextFields
	}
	if len(s.FieldPriority) == 0 {
		s.FieldPriority = def.FieldPriority
	}
	return s
}

// Validate checks that every prioritised field can be resolved.
func (s Schema) Validate() error {
	if len(s.FieldPriority) == 0 {
		return errors.New("schema: field priority must not be empty")
	}
	seen := make(map[string]struct{}, len(s.FieldPriority))
	for _, field := range s.FieldPriority {
		if _, dup := seen[field]; dup {
			return fmt.Errorf("schema: field %q listed twice in priority", field)
		}
		seen[field] = struct{}{}
		if field == FieldRegion {
			continue
		}
		if _, ok := s.TextFields[field]; !ok {
			return fmt.Errorf("schema: priority field %q has no column mapping", field)
		}
	}
	return nil
}
