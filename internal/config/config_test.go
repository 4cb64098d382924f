package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ANALYSIS_TIMEZONE", "")
	t.Setenv("AUTH_CLIENTS", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "repeat-complaints", cfg.App.Name)
	assert.Equal(t, 30, cfg.Analysis.LookbackDays)
	assert.Equal(t, 16, cfg.Analysis.DayBoundaryHour)
	assert.Equal(t, StrategySubstring, cfg.Analysis.Strategy)
	assert.Equal(t, "Asia/Shanghai", cfg.Analysis.Zone().String())
	assert.Equal(t, 24*time.Hour, cfg.Redis.ReportTTL())
	assert.Equal(t, DefaultSchema().FieldPriority, cfg.Schema.FieldPriority)
	assert.Empty(t, cfg.Auth.Clients)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ANALYSIS_LOOKBACK_DAYS", "7")
	t.Setenv("ANALYSIS_STRATEGY", "fuzzy")
	t.Setenv("ANALYSIS_SIMILARITY_THRESHOLD", "72.5")
	t.Setenv("ANALYSIS_CLOSED_END", "true")
	t.Setenv("ANALYSIS_TIMEZONE", "UTC")
	t.Setenv("ANALYSIS_SCHEDULE_MINUTES", "15")
	t.Setenv("AUTH_CLIENTS", "dash:$2a$04$abc, ops:operator:$2a$04$def")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Analysis.LookbackDays)
	assert.Equal(t, StrategyFuzzy, cfg.Analysis.Strategy)
	assert.InDelta(t, 72.5, cfg.Analysis.SimilarityThreshold, 1e-9)
	assert.True(t, cfg.Analysis.ClosedEnd)
	assert.Equal(t, 15*time.Minute, cfg.Analysis.ScheduleInterval())
	assert.Equal(t, ClientCredential{Role: "ANALYST", SecretHash: "$2a$04$abc"}, cfg.Auth.Clients["dash"])
	assert.Equal(t, ClientCredential{Role: "OPERATOR", SecretHash: "$2a$04$def"}, cfg.Auth.Clients["ops"])
}

func TestLoadRejectsInvalidAnalysis(t *testing.T) {
	t.Setenv("ANALYSIS_STRATEGY", "magic")
	_, err := Load()
	assert.ErrorContains(t, err, "unknown consensus strategy")
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	t.Setenv("ANALYSIS_TIMEZONE", "Mars/Olympus")
	_, err := Load()
	assert.ErrorContains(t, err, "ANALYSIS_TIMEZONE")
}

func TestParseClientsMalformed(t *testing.T) {
	_, err := parseClients("missing-hash")
	assert.Error(t, err)
	_, err = parseClients("a:b:c:d")
	assert.Error(t, err)
}

func TestAnalysisValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AnalysisConfig)
		ok     bool
	}{
		{"defaults", func(*AnalysisConfig) {}, true},
		{"zero lookback", func(c *AnalysisConfig) { c.LookbackDays = 0 }, false},
		{"negative target", func(c *AnalysisConfig) { c.TargetHours = -1 }, false},
		{"boundary 24", func(c *AnalysisConfig) { c.DayBoundaryHour = 24 }, false},
		{"threshold above 100", func(c *AnalysisConfig) { c.SimilarityThreshold = 101 }, false},
		{"unknown metric", func(c *AnalysisConfig) { c.SimilarityMetric = "cosine" }, false},
		{"jaro winkler", func(c *AnalysisConfig) { c.SimilarityMetric = MetricJaroWinkler }, true},
		{"no addresses", func(c *AnalysisConfig) { c.MaxAddresses = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAnalysis()
			tt.mutate(&cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestAnalysisHelpers(t *testing.T) {
	cfg := AnalysisConfig{MinRepeatCount: 1, Concurrency: 0}
	assert.Equal(t, 2, cfg.EffectiveMinRepeat())
	assert.Equal(t, 1, cfg.Workers())
	assert.Equal(t, time.UTC, cfg.Zone())
	assert.Zero(t, cfg.ScheduleInterval())

	cfg.MinRepeatCount = 4
	cfg.Concurrency = 8
	assert.Equal(t, 4, cfg.EffectiveMinRepeat())
	assert.Equal(t, 8, cfg.Workers())
}

func TestParseSchemaFillsDefaults(t *testing.T) {
	schema, err := ParseSchema([]byte(`
ticket_id: 工单编号
accepted_at: 受理时间
text_fields:
  complaint_address: 投诉地址
  reply_content: 回复内容
field_priority: [complaint_address, reply_content, region]
extra_sentinels: [未知]
`))
	require.NoError(t, err)
	assert.Equal(t, "工单编号", schema.TicketIDColumn)
	assert.Equal(t, "受理时间", schema.AcceptedAtColumn)
	assert.Equal(t, "region", schema.RegionColumn)
	assert.Equal(t, DefaultTimestampLayout, schema.TimestampLayout)
	assert.Equal(t, "-", schema.KeySeparator)
	assert.Equal(t, []string{"未知"}, schema.ExtraSentinels)
}

func TestParseSchemaRejectsUnmappedPriority(t *testing.T) {
	_, err := ParseSchema([]byte(`
text_fields:
  complaint_address: addr
field_priority: [complaint_address, reply_content]
`))
	assert.ErrorContains(t, err, "reply_content")

	_, err = ParseSchema([]byte(`field_priority: [region, region]`))
	assert.ErrorContains(t, err, "twice")

	_, err = ParseSchema([]byte(`ticket_id: [unclosed`))
	assert.Error(t, err)
}

func TestLoadSchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("key_separator: \"|\"\n"), 0o600))
	schema, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Equal(t, "|", schema.KeySeparator)

	_, err = LoadSchema(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
