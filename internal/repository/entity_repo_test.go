package repository_test

import (
	"context"
	"fmt"
	"testing"

	"RosterSync/internal/model"
	"RosterSync/internal/repository"
	"RosterSync/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityRepository_FindByName(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewEntityRepository(db)
	ctx := context.Background()

	arsenal := testutil.Club(t, db, "Arsenal", "eng.1")
	testutil.Club(t, db, "Arsenal Tula", "rus.1")
	testutil.Player(t, db, "Arsenal", nil)
	testutil.Club(t, db, "Arsenal", "eng.1", func(e *model.Entity) { e.IsStub = true })

	list, err := repo.FindByName(ctx, model.KindClub, "  ARSENAL ")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, arsenal.ID, list[0].ID)
	assert.Equal(t, "arsenal", list[0].NormalizedName)
}

func TestEntityRepository_FindByNormalizedName(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewEntityRepository(db)
	ctx := context.Background()

	bayern := testutil.Club(t, db, "Bayern München", "ger.1")
	testutil.Club(t, db, "Bayer Leverkusen", "ger.1")
	testutil.Club(t, db, "Barcelona", "esp.1")

	assert.Equal(t, "bayern munchen", bayern.SearchName)

	list, err := repo.FindByNormalizedName(ctx, model.KindClub, "bay", "bayern munchen")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, bayern.ID, list[0].ID)

	list, err = repo.FindByNormalizedName(ctx, model.KindClub, "bar", "bayern munchen")
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = repo.FindByNormalizedName(ctx, model.KindClub, "bay", "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEntityRepository_FindByNormalizedName_ManySharingPrefix(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewEntityRepository(db)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		testutil.Club(t, db, fmt.Sprintf("Bayside %d", i), "eng.9")
	}
	first := testutil.Club(t, db, "Bayern München", "ger.1")
	second := testutil.Club(t, db, "Bayern Munchen", "ger.2")

	list, err := repo.FindByNormalizedName(ctx, model.KindClub, "bay", "bayern munchen")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestEntityRepository_ProviderIDs(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewEntityRepository(db)
	ctx := context.Background()

	club := testutil.Club(t, db, "Chelsea", "eng.1", testutil.WithProviderID("fbref_id", "cff3d9bb"))
	// 球员与球队的外部 ID 命名空间互不影响
	testutil.Player(t, db, "Cole Palmer", club, testutil.WithProviderID("fbref_id", "cff3d9bb"))

	found, err := repo.FindByProviderID(ctx, model.KindClub, "fbref_id", "cff3d9bb")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, club.ID, found.ID)

	missing, err := repo.FindByProviderID(ctx, model.KindClub, "fbref_id", "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.FindByProviderID(ctx, model.KindClub, "name", "Chelsea")
	assert.Error(t, err)

	other := testutil.Club(t, db, "Fulham", "eng.1")
	_, err = repo.UpdateProviderID(ctx, other.ID, "fbref_id", "cff3d9bb", "import:fbref")
	assert.True(t, repository.IsDuplicateKey(err), "got %v", err)

	n, err := repo.UpdateProviderID(ctx, other.ID, "transfermarkt_id", "931", "import:transfermarkt")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	reloaded := testutil.Reload(t, db, other.ID)
	assert.Equal(t, "931", reloaded.ProviderID("transfermarkt_id"))
	assert.Equal(t, "import:transfermarkt", reloaded.UpdatedSource)

	require.NoError(t, repo.ClearProviderIDs(ctx, other.ID))
	assert.Empty(t, testutil.Reload(t, db, other.ID).ProviderIDs())
}

func TestEntityRepository_DeleteStubOnly(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewEntityRepository(db)
	ctx := context.Background()

	everton := testutil.Club(t, db, "Everton", "eng.1")
	stub := testutil.Club(t, db, "Evertn", "", func(e *model.Entity) { e.IsStub = true })

	n, err := repo.DeleteStub(ctx, everton.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	n, err = repo.DeleteStub(ctx, stub.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	count, err := repo.CountByKind(ctx, model.KindClub)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestAliasRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewAliasRepository(db)
	ctx := context.Background()

	spurs := testutil.Club(t, db, "Tottenham Hotspur", "eng.1")

	inserted, err := repo.InsertIfAbsent(ctx, &model.EntityAlias{EntityID: spurs.ID, Provider: "fbref", AliasName: "Tottenham"})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.InsertIfAbsent(ctx, &model.EntityAlias{EntityID: spurs.ID, Provider: "fbref", AliasName: "Tottenham"})
	require.NoError(t, err)
	assert.False(t, inserted)

	list, err := repo.FindByName(ctx, model.KindClub, "tottenham")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, spurs.ID, list[0].EntityID)

	list, err = repo.FindByName(ctx, model.KindPlayer, "tottenham")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReviewRepository_DeletePendingKeepsReviewed(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewReviewRepository(db)
	ctx := context.Background()

	mk := func(status model.ReviewStatus, provider string) *model.ReviewQueueItem {
		return &model.ReviewQueueItem{
			RunID: "run-1", Kind: model.KindClub, Provider: provider, RowData: []byte(`{}`),
			MatchStatus: model.StatusNoMatch, Confidence: model.ConfidenceNone, ReviewStatus: status,
		}
	}
	require.NoError(t, repo.CreateBatch(ctx, []*model.ReviewQueueItem{
		mk(model.ReviewPending, "fbref"),
		mk(model.ReviewPending, "fbref"),
		mk(model.ReviewPending, "fotmob"),
		mk(model.ReviewApproved, "fbref"),
		mk(model.ReviewSkipped, "fbref"),
	}))

	n, err := repo.DeletePending(ctx, repository.ReviewScope{Kind: model.KindClub, Provider: "fbref"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	pending, err := repo.CountPending(ctx, repository.ReviewScope{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)

	var total int64
	require.NoError(t, db.Model(&model.ReviewQueueItem{}).Count(&total).Error)
	assert.EqualValues(t, 3, total)
}
