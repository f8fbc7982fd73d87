// ABOUTME: Tests for kanban bucket derivation
package workspace

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calegray/revdeck/models"
)

func namedDeal(name, stage string) models.Deal {
	return models.Deal{ID: uuid.New(), Name: name, Stage: stage}
}

func TestGroupByStageUnionEqualsInput(t *testing.T) {
	deals := []models.Deal{
		namedDeal("a", models.StageProposal),
		namedDeal("b", models.StageDiscovery),
		namedDeal("c", models.StageProposal),
		namedDeal("d", models.StageClosedWon),
		namedDeal("e", models.StageClosedLost),
	}

	buckets := GroupByStage(deals)

	var union []models.Deal
	for _, b := range buckets {
		union = append(union, b.Deals...)
	}
	require.Len(t, union, len(deals))

	seen := map[uuid.UUID]bool{}
	for _, d := range union {
		assert.False(t, seen[d.ID], "deal %s duplicated", d.Name)
		seen[d.ID] = true
	}
}

func TestGroupByStagePreservesFetchOrderWithinBucket(t *testing.T) {
	deals := []models.Deal{
		namedDeal("first", models.StageProposal),
		namedDeal("second", models.StageProposal),
		namedDeal("third", models.StageProposal),
	}

	buckets := GroupByStage(deals)

	for _, b := range buckets {
		if b.Stage != models.StageProposal {
			assert.Empty(t, b.Deals)
			continue
		}
		require.Len(t, b.Deals, 3)
		assert.Equal(t, "first", b.Deals[0].Name)
		assert.Equal(t, "second", b.Deals[1].Name)
		assert.Equal(t, "third", b.Deals[2].Name)
	}
}

func TestGroupByStageBucketsEveryKnownStage(t *testing.T) {
	buckets := GroupByStage(nil)

	require.Len(t, buckets, len(models.StageOrder))
	for i, stage := range models.StageOrder {
		assert.Equal(t, stage, buckets[i].Stage)
	}
}

func TestGroupByStageKeepsUnknownStages(t *testing.T) {
	deals := []models.Deal{
		namedDeal("odd", "handshake"),
		namedDeal("plain", models.StageDiscovery),
	}

	buckets := GroupByStage(deals)

	require.Len(t, buckets, len(models.StageOrder)+1)
	last := buckets[len(buckets)-1]
	assert.Equal(t, "handshake", last.Stage)
	require.Len(t, last.Deals, 1)
	assert.Equal(t, "odd", last.Deals[0].Name)
}

func TestBoardShowsOnlyOpenStages(t *testing.T) {
	assert.Equal(t, models.OpenStages, BoardStages())

	m := newTestModel(&fakeRepo{})
	m.deals = models.DealPage{Data: []models.Deal{
		namedDeal("live", models.StageNegotiation),
		namedDeal("done", models.StageClosedWon),
	}}

	cols := m.boardColumns()
	require.Len(t, cols, len(models.OpenStages))
	for _, c := range cols {
		for _, d := range c.Deals {
			assert.NotEqual(t, "done", d.Name)
		}
	}
}
