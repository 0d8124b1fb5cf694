package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/pkg/apperr"
	"memory-beads-be/pkg/importer"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoPlayerExport = `[
  {"id":"1","type":"STORY","playerId":"ana","timestamp":1704067200000,"fullStory":"Snow on the roof.","keyword":"Snow"},
  {"id":"2","type":"STORY","playerId":"ben","timestamp":1704153600000,"fullStory":"The old bike.","keyword":"Bike"},
  {"id":"3","type":"STORY","playerId":"ana","timestamp":1704240000000,"fullStory":"Tea with mom."},
  {"id":"4","type":"REACTION","playerId":"ben","timestamp":1704240000000}
]`

func newImportFixture(t *testing.T) (*journalFixture, IImportService) {
	f := newJournalFixture(t)
	adapter := importer.NewAdapter(nil, time.UTC)
	return f, NewImportService(adapter, f.svc, logger.NewNopLogger(), f.metrics)
}

func TestImportNeedsOwnerChoice(t *testing.T) {
	f, svc := newImportFixture(t)
	ctx := context.Background()
	userId := uuid.New()

	res, err := svc.Import(ctx, userId, strings.NewReader(twoPlayerExport))
	require.NoError(t, err)
	assert.False(t, res.Imported)
	assert.ElementsMatch(t, []string{"ana", "ben"}, res.Owners)

	_, err = svc.ChooseOwner(ctx, userId, &dto.ChooseOwnerRequest{PlayerId: "carl"})
	assert.Equal(t, apperr.KindUserInput, apperr.KindOf(err))

	res, err = svc.ChooseOwner(ctx, userId, &dto.ChooseOwnerRequest{PlayerId: "ana"})
	require.NoError(t, err)
	assert.True(t, res.Imported)
	assert.Equal(t, 2, res.Count)
	require.NotNil(t, res.Journal)
	assert.Len(t, res.Journal.Queue, 2)
	for _, b := range res.Journal.Queue {
		assert.True(t, b.IsDraft)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.BeadsImported))

	_, err = svc.ChooseOwner(ctx, userId, &dto.ChooseOwnerRequest{PlayerId: "ana"})
	assert.Equal(t, apperr.KindStaleReference, apperr.KindOf(err), "the choice is consumed")
}

func TestImportSinglePlayerReplacesQueue(t *testing.T) {
	_, svc := newImportFixture(t)
	ctx := context.Background()

	res, err := svc.Import(ctx, uuid.New(), strings.NewReader(`[{"id":"1","type":"STORY","playerId":"ana","timestamp":1704067200000,"fullStory":"Snow."}]`))
	require.NoError(t, err)
	assert.True(t, res.Imported)
	assert.Equal(t, 1, res.Count)
	assert.Empty(t, res.Owners)
}

func TestImportRejectsBadFiles(t *testing.T) {
	_, svc := newImportFixture(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, uuid.New(), strings.NewReader(`{"not":"a list"}`))
	assert.Equal(t, apperr.KindUserInput, apperr.KindOf(err))

	_, err = svc.Import(ctx, uuid.New(), strings.NewReader(`[{"id":"4","type":"REACTION"}]`))
	assert.Equal(t, apperr.KindUserInput, apperr.KindOf(err))
}
