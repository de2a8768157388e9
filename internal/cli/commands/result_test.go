package commands

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/leapstack-labs/leapload/internal/cli/testutil"
	"github.com/leapstack-labs/leapload/internal/engine"
	"github.com/leapstack-labs/leapload/pkg/schema"
	"github.com/leapstack-labs/leapload/pkg/warehouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *engine.Result {
	return &engine.Result{
		RunID: "run-1",
		Entities: []engine.EntityResult{
			{Table: "Owner", Rows: 2, Duration: 1500 * time.Millisecond},
			{Table: "Item", Err: errors.New("boom")},
			{Table: "Shelf", Skipped: true},
		},
		Backfills: []warehouse.Result{{
			Relationship:    schema.Relationship{Table: "Item", Column: "OWNER_id", ForeignTable: "Owner"},
			TargetSurrogate: "SK_OWNER_id",
			Resolved:        4,
			Orphans:         2,
		}},
	}
}

func TestBuildRunOutput(t *testing.T) {
	out := buildRunOutput("load", sampleResult(), nil)

	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, "completed", out.Status)
	require.Len(t, out.Entities, 3)
	assert.Equal(t, EntityOutput{Table: "Owner", Status: "success", Rows: 2, DurationMs: 1500}, out.Entities[0])
	assert.Equal(t, EntityOutput{Table: "Item", Status: "failed", Error: "boom"}, out.Entities[1])
	assert.Equal(t, "skipped", out.Entities[2].Status)
	require.Len(t, out.Backfills, 1)
	assert.Equal(t, "Item.OWNER_id -> Owner.OWNER_id", out.Backfills[0].Relationship)
	assert.Equal(t, int64(2), countOrphans(out))
}

func TestBuildRunOutput_Failed(t *testing.T) {
	out := buildRunOutput("backfill", nil, errors.New("no such table"))

	assert.Equal(t, "failed", out.Status)
	assert.Equal(t, "no such table", out.Error)
	assert.Empty(t, out.Entities)
}

func TestRenderRun_Markdown(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	require.NoError(t, renderRun(tr.Renderer, "Load", buildRunOutput("load", sampleResult(), nil)))

	got := tr.Output()
	testutil.AssertNoANSI(t, got)
	testutil.AssertValidMarkdown(t, got)
	assert.Contains(t, got, "# Load")
	assert.Contains(t, got, "- **Run:** run-1")
	assert.Contains(t, got, "| Owner | success | 2 | 1.5s |")
	assert.Contains(t, got, "| Item.OWNER_id -> Owner.OWNER_id | SK_OWNER_id | 4 | 2 |")
	assert.Contains(t, tr.ErrorOutput(), "2 foreign keys had no match")
}

func TestRenderRun_Text(t *testing.T) {
	tr := testutil.NewTestRendererText()
	require.NoError(t, renderRun(tr.Renderer, "Backfill", buildRunOutput("backfill", &engine.Result{}, errors.New("boom"))))

	got := tr.Output()
	assert.Contains(t, got, "Status: failed")
	assert.Contains(t, got, "Error: boom")
	assert.NotContains(t, got, "Tables")
}

func TestRenderRun_JSON(t *testing.T) {
	tr := testutil.NewTestRendererJSON()
	require.NoError(t, renderRun(tr.Renderer, "Load", buildRunOutput("load", sampleResult(), nil)))

	var got RunOutput
	require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
	assert.Equal(t, "load", got.Command)
	assert.Len(t, got.Entities, 3)
	assert.Empty(t, tr.ErrorOutput())
}
