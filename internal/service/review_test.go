package service_test

import (
	"context"
	"testing"

	"RosterSync/internal/model"
	"RosterSync/internal/repository"
	"RosterSync/internal/service"
	"RosterSync/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func importClubs(t *testing.T, s *services, rows ...map[string]string) *service.ImportSummary {
	t.Helper()
	summary, err := s.importer.Run(context.Background(), service.ImportRequest{
		Kind:     model.KindClub,
		Provider: "fbref",
		Rows:     fbrefRows(t, rows...),
	})
	require.NoError(t, err)
	return summary
}

func TestReview_SecondImportPurgesOnlyPending(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	madrid := testutil.Club(t, s.db, "Real Madrid", "esp.1")
	testutil.Club(t, s.db, "Real Madrid", "usa.2")

	first := importClubs(t, s,
		map[string]string{"name": "Real Madrid"},
		map[string]string{"name": "Ghost Town"},
		map[string]string{"name": "Phantom Rovers"},
		map[string]string{"name": "Spectre Athletic"},
	)
	require.Equal(t, 4, first.Queued)

	items, err := repository.NewReviewRepository(s.db).ListByRun(ctx, first.RunID)
	require.NoError(t, err)
	require.Len(t, items, 4)

	_, err = s.review.Approve(ctx, items[0].ID, madrid.ID, "")
	require.NoError(t, err)
	_, err = s.review.Reject(ctx, items[1].ID, "不是球队")
	require.NoError(t, err)
	_, err = s.review.Skip(ctx, items[2].ID, "")
	require.NoError(t, err)

	second := importClubs(t, s, map[string]string{"name": "Another Ghost"})
	assert.Equal(t, 1, second.Queued)

	remaining, err := repository.NewReviewRepository(s.db).ListByRun(ctx, first.RunID)
	require.NoError(t, err)
	require.Len(t, remaining, 3)
	assert.Equal(t, model.ReviewApproved, remaining[0].ReviewStatus)
	assert.Equal(t, model.ReviewRejected, remaining[1].ReviewStatus)
	assert.Equal(t, model.ReviewSkipped, remaining[2].ReviewStatus)

	n, err := s.review.CountPending(ctx, repository.ReviewScope{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReview_ClearPendingIsScoped(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	rows := fbrefRows(t, map[string]string{"name": "Ghost Town"})
	results := []service.RowResult{{RowIndex: 0, Result: model.NoMatch()}}

	_, err := s.review.Enqueue(ctx, "run-a", repository.ReviewScope{Kind: model.KindClub, Provider: "fbref"}, rows, results, nil)
	require.NoError(t, err)
	_, err = s.review.Enqueue(ctx, "run-b", repository.ReviewScope{Kind: model.KindClub, Provider: "fotmob"}, rows, results, nil)
	require.NoError(t, err)

	deleted, err := s.review.ClearPending(ctx, repository.ReviewScope{Kind: model.KindClub, Provider: "fbref"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	n, err := s.review.CountPending(ctx, repository.ReviewScope{Provider: "fotmob"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReview_ApproveEntityOutsideCandidates(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	testutil.Club(t, s.db, "Real Madrid", "esp.1")
	testutil.Club(t, s.db, "Real Madrid", "usa.2")
	castilla := testutil.Club(t, s.db, "Real Madrid Castilla", "esp.3")

	summary := importClubs(t, s, map[string]string{"name": "Real Madrid", "fbref_id": "9b2ba4a8"})
	items, err := repository.NewReviewRepository(s.db).ListByRun(ctx, summary.RunID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item, err := s.review.Approve(ctx, items[0].ID, castilla.ID, "二队")
	require.NoError(t, err)
	assert.Equal(t, model.ReviewApproved, item.ReviewStatus)
	require.NotNil(t, item.ApprovedEntityID)
	assert.Equal(t, castilla.ID, *item.ApprovedEntityID)
	assert.NotNil(t, item.ReviewedAt)

	stored, err := repository.NewReviewRepository(s.db).GetByID(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewApproved, stored.ReviewStatus)
	assert.Equal(t, castilla.ID, *stored.ApprovedEntityID)
	assert.Equal(t, "二队", stored.Note)

	// 原始行的外部 ID 写到了人工选定的实体上
	assert.Equal(t, "9b2ba4a8", *testutil.Reload(t, s.db, castilla.ID).FbrefID)

	_, err = s.review.Approve(ctx, items[0].ID, castilla.ID, "")
	require.ErrorIs(t, err, service.ErrAlreadyApproved)
	_, err = s.review.Reject(ctx, items[0].ID, "")
	require.ErrorIs(t, err, service.ErrAlreadyApproved)
}

func TestReview_ApproveErrors(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	player := testutil.Player(t, s.db, "Bukayo Saka", nil)
	stub := testutil.Club(t, s.db, "Stub FC", "", func(e *model.Entity) { e.IsStub = true })

	summary := importClubs(t, s, map[string]string{"name": "Ghost Town"})
	items, err := repository.NewReviewRepository(s.db).ListByRun(ctx, summary.RunID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	id := items[0].ID

	_, err = s.review.Approve(ctx, 9999, player.ID, "")
	require.ErrorIs(t, err, service.ErrQueueItemNotFound)
	_, err = s.review.Approve(ctx, id, 9999, "")
	require.ErrorIs(t, err, service.ErrEntityNotFound)
	_, err = s.review.Approve(ctx, id, player.ID, "")
	require.ErrorIs(t, err, service.ErrKindMismatch)
	_, err = s.review.Approve(ctx, id, stub.ID, "")
	require.ErrorIs(t, err, service.ErrStubTarget)
	_, err = s.review.Skip(ctx, 9999, "")
	require.ErrorIs(t, err, service.ErrQueueItemNotFound)

	// 失败的审核不改变状态
	stored, err := repository.NewReviewRepository(s.db).GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewPending, stored.ReviewStatus)
}

func TestReview_ApproveConflictRollsBack(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	testutil.Club(t, s.db, "Arsenal", "eng.1", testutil.WithProviderID("fbref_id", "18bb7c10"))
	chelsea := testutil.Club(t, s.db, "Chelsea", "eng.1")

	summary := importClubs(t, s, map[string]string{"name": "Ghost Town", "fbref_id": "18bb7c10"})
	items, err := repository.NewReviewRepository(s.db).ListByRun(ctx, summary.RunID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = s.review.Approve(ctx, items[0].ID, chelsea.ID, "")
	var conflict *service.ConflictError
	require.ErrorAs(t, err, &conflict)

	stored, err := repository.NewReviewRepository(s.db).GetByID(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewPending, stored.ReviewStatus)
	assert.Nil(t, stored.ApprovedEntityID)
}

func TestReview_ListPendingResolvesCandidates(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	testutil.Club(t, s.db, "Real Madrid", "esp.1")
	testutil.Club(t, s.db, "Real Madrid", "usa.2")
	importClubs(t, s,
		map[string]string{"name": "Real Madrid", "country": ""},
		map[string]string{"name": "Ghost Town"},
	)

	page, err := s.review.ListPending(ctx, repository.ReviewScope{Kind: model.KindClub}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	require.Len(t, page.Items, 2)

	first := page.Items[0]
	assert.Equal(t, "Real Madrid", first.DisplayName)
	assert.Equal(t, model.StatusUncertain, first.MatchStatus)
	require.Len(t, first.Candidates, 2)
	assert.Equal(t, "esp.1", first.Candidates[0].Context)
	assert.Equal(t, 100, first.Candidates[0].Similarity)
	assert.Equal(t, "Real Madrid", first.Fields["name"])

	second := page.Items[1]
	assert.Equal(t, model.StatusNoMatch, second.MatchStatus)
	assert.Empty(t, second.Candidates)

	page, err = s.review.ListPending(ctx, repository.ReviewScope{Kind: model.KindPlayer}, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}
