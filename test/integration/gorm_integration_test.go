package integration

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"

	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/entity"
	"memory-beads-be/internal/model"
	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/internal/repository/contract"
	"memory-beads-be/internal/repository/specification"
	"memory-beads-be/internal/repository/unitofwork"
	"memory-beads-be/internal/service"
	"memory-beads-be/pkg/bead"
	"memory-beads-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormJournalRepository(t *testing.T) {
	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(gormDB, &model.Journal{}))

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	userId := uuid.New()
	t.Cleanup(func() {
		_ = uowFactory.NewUnitOfWork(ctx).JournalRepository().Delete(ctx, userId)
	})

	t.Run("Save and load round trip", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()

		repo := uow.JournalRepository()
		created, err := repo.Create(ctx, entity.NewJournal(userId))
		require.NoError(t, err)
		require.True(t, created)

		j, err := repo.FindOne(ctx, specification.ByUserId{UserId: userId}, specification.ForUpdate{})
		require.NoError(t, err)
		require.NotNil(t, j)
		engine := bead.NewEngine(nil, nil)
		j.State, _ = engine.Capture(j.State, bead.CaptureInput{Title: "Lost Key", Prompt: "Where?", Story: "Shed."})
		require.NoError(t, repo.Save(ctx, j))
		require.NoError(t, uow.Commit())

		got, err := uowFactory.NewUnitOfWork(ctx).JournalRepository().FindOne(ctx, specification.ByUserId{UserId: userId})
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Len(t, got.State.Collection, 1)
		assert.Equal(t, "Lost Key", got.State.Collection[0].Title)
		assert.Equal(t, bead.SeedFallbackId, got.State.Fallback.Id)
		assert.Equal(t, int64(1), got.Version)
	})

	t.Run("Locked update bumps version", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()

		j, err := uow.JournalRepository().FindOne(ctx, specification.ByUserId{UserId: userId}, specification.ForUpdate{})
		require.NoError(t, err)
		require.NotNil(t, j)
		j.View.Tab = bead.TabCollection
		require.NoError(t, uow.JournalRepository().Save(ctx, j))
		require.NoError(t, uow.Commit())

		got, err := uowFactory.NewUnitOfWork(ctx).JournalRepository().FindOne(ctx, specification.ByUserId{UserId: userId})
		require.NoError(t, err)
		assert.Equal(t, bead.TabCollection, got.View.Tab)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("Stale save is rejected", func(t *testing.T) {
		j, err := uowFactory.NewUnitOfWork(ctx).JournalRepository().FindOne(ctx, specification.ByUserId{UserId: userId})
		require.NoError(t, err)
		j.Version--
		err = uowFactory.NewUnitOfWork(ctx).JournalRepository().Save(ctx, j)
		assert.ErrorIs(t, err, contract.ErrVersionConflict)

		created, err := uowFactory.NewUnitOfWork(ctx).JournalRepository().Create(ctx, entity.NewJournal(userId))
		require.NoError(t, err)
		assert.False(t, created, "existing journal is kept")
	})
}

func TestGormConcurrentFirstCapturesKeepBoth(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(gormDB, &model.Journal{}))

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	userId := uuid.New()
	t.Cleanup(func() {
		_ = uowFactory.NewUnitOfWork(ctx).JournalRepository().Delete(ctx, userId)
	})

	svc := service.NewJournalService(
		uowFactory,
		bead.NewEngine(nil, nil),
		service.NewNopEventPublisher(),
		nopQuestions{},
		nopStream{},
		nil,
		nil,
		nil,
		logger.NewNopLogger(),
		nil,
	)

	titles := []string{"Lost Key", "Red Kite", "Blue Door", "Old Map"}
	var wg sync.WaitGroup
	for _, title := range titles {
		wg.Add(1)
		go func(title string) {
			defer wg.Done()
			res, err := svc.Capture(ctx, userId, bead.CaptureInput{Title: title, Prompt: "Where?"})
			assert.NoError(t, err)
			if err == nil {
				assert.True(t, res.Applied)
			}
		}(title)
	}
	wg.Wait()

	got, err := uowFactory.NewUnitOfWork(ctx).JournalRepository().FindOne(ctx, specification.ByUserId{UserId: userId})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.State.Collection, len(titles), "no capture is lost")
	assert.Equal(t, int64(len(titles)), got.Version)
}

type nopQuestions struct{}

func (nopQuestions) RequestQuestions(context.Context, dto.QuestionRequestMessage) error { return nil }

type nopStream struct{}

func (nopStream) Send(uuid.UUID, string, interface{}) {}
