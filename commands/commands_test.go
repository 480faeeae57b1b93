package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-feed-deck/internal/config"
	"github.com/penwyp/go-feed-deck/internal/core/registry"
	"github.com/penwyp/go-feed-deck/internal/data/store"
	"github.com/penwyp/go-feed-deck/internal/presentation/formatter"
	"github.com/penwyp/go-feed-deck/internal/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEvents = `{"id":"1","source":"rss","channel":"blog","body":"golang 1.24 released","timestamp":"2026-01-01T10:00:00Z"}
{"id":"2","source":"irc","channel":"#pics","author":"ann","body":"look","media":"image","timestamp":"2026-01-01T10:01:00Z"}
not json at all
{"id":"3","source":"irc","channel":"#go","author":"rob","body":"Golang tip","timestamp":"2026-01-01T10:02:00Z"}
{"id":"4","source":"rss","channel":"blog","body":"rust news","timestamp":"2026-01-01T10:03:00Z"}
`

func deckConfigYAML(dir string, logCapacity int) string {
	return `
deck:
  log_capacity: ` + strconv.Itoa(logCapacity) + `
  timezone: UTC
logging:
  file: ` + filepath.Join(dir, "app.log") + `
storage:
  path: ` + filepath.Join(dir, "state.db") + `
columns:
  - id: golang
    title: Go
    filters:
      - - text: golang
  - id: pics
    title: Pictures
    pinned: true
    filters:
      - - media: image
`
}

// setup writes a config and events file and points the command globals at them
func setup(t *testing.T, logCapacity int) (dir string) {
	t.Helper()
	dir = t.TempDir()
	cfgPath := filepath.Join(dir, "deck.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(deckConfigYAML(dir, logCapacity)), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "events.jsonl"), []byte(testEvents), 0644))

	configPath = cfgPath
	statePath = ""
	debug = false
	scanFiles = []string{filepath.Join(dir, "events.jsonl")}
	scanOutput = "json"
	scanLimit = 20
	scanBudget = 0
	scanFromState = false
	columnsOutput = "json"
	columnsFromState = false
	columnsExport = ""
	initForce = false
	return dir
}

func decodeReports(t *testing.T, data []byte) []formatter.ColumnReport {
	t.Helper()
	var reports []formatter.ColumnReport
	require.NoError(t, sonic.Unmarshal(data, &reports), string(data))
	return reports
}

func eventIDs(r formatter.ColumnReport) []string {
	ids := make([]string, 0, len(r.Events))
	for _, ev := range r.Events {
		ids = append(ids, ev.ID)
	}
	return ids
}

func TestRootCommandFlags(t *testing.T) {
	tests := []struct {
		flag         string
		defaultValue string
		shorthand    string
	}{
		{"config", config.DefaultConfigPath, "c"},
		{"state", "", ""},
		{"debug", "false", ""},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			flag := rootCmd.PersistentFlags().Lookup(tt.flag)
			require.NotNil(t, flag)
			assert.Equal(t, tt.defaultValue, flag.DefValue)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
		})
	}
	assert.NotNil(t, rootCmd.Flags().Lookup("no-watch"))
	assert.Equal(t, "go-feed-deck [flags]", rootCmd.Use)
}

func TestSubcommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"scan", "columns", "init"} {
		assert.True(t, names[want], want)
	}

	flag := scanCmd.Flags().Lookup("file")
	require.NotNil(t, flag)
	assert.Equal(t, "f", flag.Shorthand)
	assert.Equal(t, "table", scanCmd.Flags().Lookup("output").DefValue)
}

func TestScanPrintsMatchesNewestFirst(t *testing.T) {
	setup(t, 100)
	var out bytes.Buffer
	scanCmd.SetOut(&out)
	defer scanCmd.SetOut(nil)

	require.NoError(t, runScan(scanCmd, nil))
	reports := decodeReports(t, out.Bytes())
	require.Len(t, reports, 2)

	assert.Equal(t, "pics", reports[0].ID, "pinned column first")
	assert.Equal(t, []string{"2"}, eventIDs(reports[0]))
	assert.Equal(t, 4, reports[0].Scanned, "the malformed line is skipped")

	assert.Equal(t, "golang", reports[1].ID)
	assert.Equal(t, []string{"3", "1"}, eventIDs(reports[1]))
	assert.Equal(t, 2, reports[1].Matched)
}

func TestScanEvictsBeyondCapacity(t *testing.T) {
	setup(t, 2)
	var out bytes.Buffer
	scanCmd.SetOut(&out)
	defer scanCmd.SetOut(nil)

	require.NoError(t, runScan(scanCmd, nil))
	reports := decodeReports(t, out.Bytes())
	require.Len(t, reports, 2)
	assert.Empty(t, reports[0].Events, "image event was evicted")
	assert.Equal(t, []string{"3"}, eventIDs(reports[1]))
	assert.Equal(t, 2, reports[1].Scanned)
}

func TestScanBudgetOnGeneratedFeed(t *testing.T) {
	dir := setup(t, 100)
	path := filepath.Join(dir, "generated.jsonl")
	gen := fixtures.NewEventGenerator(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), time.Second)
	require.NoError(t, fixtures.WriteJSONL(path, gen.Events(30)))
	scanFiles = []string{path}
	scanBudget = 5

	var out bytes.Buffer
	scanCmd.SetOut(&out)
	defer scanCmd.SetOut(nil)

	require.NoError(t, runScan(scanCmd, nil))
	reports := decodeReports(t, out.Bytes())
	require.Len(t, reports, 2)
	assert.Equal(t, 5, reports[0].Scanned)
	assert.Equal(t, []string{"ev-3"}, eventIDs(reports[0]))
	assert.Equal(t, []string{"ev-4", "ev-1"}, eventIDs(reports[1]))
}

func TestScanLimitAndTable(t *testing.T) {
	setup(t, 100)
	scanLimit = 1
	scanOutput = "table"
	var out bytes.Buffer
	scanCmd.SetOut(&out)
	defer scanCmd.SetOut(nil)

	require.NoError(t, runScan(scanCmd, nil))
	text := out.String()
	assert.Contains(t, text, "Go  (text~golang)  2 matched of 4 scanned")
	assert.Contains(t, text, "Golang tip")
	assert.NotContains(t, text, "1.24 released", "limit keeps only the newest")
	assert.Contains(t, text, "2026-01-01 10:02:00")
}

func TestScanRejectsMissingFileAndBadFormat(t *testing.T) {
	dir := setup(t, 100)
	scanFiles = []string{filepath.Join(dir, "absent.jsonl")}
	assert.Error(t, runScan(scanCmd, nil))

	setup(t, 100)
	scanOutput = "xml"
	assert.ErrorContains(t, runScan(scanCmd, nil), "unknown output format")
}

func TestColumnsListsEncodedFilters(t *testing.T) {
	setup(t, 100)
	var out bytes.Buffer
	columnsCmd.SetOut(&out)
	defer columnsCmd.SetOut(nil)

	require.NoError(t, runColumns(columnsCmd, nil))
	reports := decodeReports(t, out.Bytes())
	require.Len(t, reports, 2)
	assert.Equal(t, "pics", reports[0].ID)
	assert.True(t, reports[0].Pinned)
	assert.Equal(t, `[[{"kind":"media","media":"image"}]]`, reports[0].Encoded)
	assert.Equal(t, `[[{"kind":"text","query":"golang"}]]`, reports[1].Encoded)
}

func TestColumnsFromStateAndExport(t *testing.T) {
	dir := setup(t, 100)
	st, err := store.Open(filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	require.NoError(t, st.SaveColumns([]registry.ColumnState{
		{ID: "saved", Title: "Saved", Pinned: false, Filters: `[[{"kind":"source","source":"irc"}]]`},
	}))
	require.NoError(t, st.Close())

	columnsFromState = true
	columnsOutput = "table"
	columnsExport = filepath.Join(dir, "exported.json")
	var out, errOut bytes.Buffer
	columnsCmd.SetOut(&out)
	columnsCmd.SetErr(&errOut)
	defer columnsCmd.SetOut(nil)
	defer columnsCmd.SetErr(nil)

	require.NoError(t, runColumns(columnsCmd, nil))
	assert.Contains(t, out.String(), "Saved")
	assert.Contains(t, out.String(), "source=irc")
	assert.Contains(t, errOut.String(), "wrote 1 columns")

	exported, err := config.Load(columnsExport)
	require.NoError(t, err)
	require.Len(t, exported.Columns, 1)
	assert.Equal(t, "saved", exported.Columns[0].ID)
	assert.Equal(t, "irc", exported.Columns[0].Filters[0][0].SourceType)
}

func TestInitWritesStarterConfig(t *testing.T) {
	dir := setup(t, 100)
	configPath = filepath.Join(dir, "new", "deck.yaml")
	var out bytes.Buffer
	initCmd.SetOut(&out)
	defer initCmd.SetOut(nil)

	require.NoError(t, runInit(initCmd, nil))
	assert.Contains(t, out.String(), "wrote")

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	require.Len(t, cfg.Columns, 2)
	require.Len(t, cfg.Sources, 1)
	assert.True(t, cfg.Columns[0].Pinned)

	assert.ErrorContains(t, runInit(initCmd, nil), "already exists")
	initForce = true
	assert.NoError(t, runInit(initCmd, nil))
}

func TestLoadConfigStateOverride(t *testing.T) {
	setup(t, 100)
	statePath = "/tmp/elsewhere.db"
	cfg, path, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/elsewhere.db", cfg.Storage.Path)
	assert.Equal(t, configPath, path)
}
