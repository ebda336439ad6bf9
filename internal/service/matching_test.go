package service_test

import (
	"context"
	"fmt"
	"testing"

	"RosterSync/internal/model"
	"RosterSync/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_ExactClub(t *testing.T) {
	s := newServices(t)
	arsenal := testutil.Club(t, s.db, "Arsenal", "eng.1")

	res, err := s.matching.Classify(context.Background(), model.KindClub, fbref(t, map[string]string{"name": "Arsenal", "country": "England"}))
	require.NoError(t, err)
	assert.Equal(t, model.StatusExactMatch, res.Status)
	assert.Equal(t, model.ConfidenceHigh, res.Confidence)
	assert.Equal(t, model.MatchTypeCanonical, res.MatchType)
	require.Len(t, res.Candidates, 1)
	require.NotNil(t, res.EntityID)
	assert.Equal(t, arsenal.ID, *res.EntityID)
}

func TestClassify_AmbiguousWithUnknownCountry(t *testing.T) {
	s := newServices(t)
	testutil.Club(t, s.db, "Real Madrid", "esp.1")
	testutil.Club(t, s.db, "Real Madrid", "usa.2")

	res, err := s.matching.Classify(context.Background(), model.KindClub, fbref(t, map[string]string{"name": "Real Madrid"}))
	require.NoError(t, err)
	assert.Equal(t, model.StatusUncertain, res.Status)
	assert.Equal(t, model.ConfidenceMedium, res.Confidence)
	assert.Len(t, res.Candidates, 2)
	assert.Nil(t, res.EntityID)
}

func TestClassify_CountryDisambiguates(t *testing.T) {
	s := newServices(t)
	madrid := testutil.Club(t, s.db, "Real Madrid", "esp.1")
	testutil.Club(t, s.db, "Real Madrid", "eng.5")

	res, err := s.matching.Classify(context.Background(), model.KindClub, fbref(t, map[string]string{"name": "Real Madrid", "country": "spain"}))
	require.NoError(t, err)
	assert.Equal(t, model.StatusExactMatch, res.Status)
	assert.Equal(t, madrid.ID, *res.EntityID)
}

func TestClassify_CountryRejectsAll(t *testing.T) {
	s := newServices(t)
	testutil.Club(t, s.db, "Arsenal", "eng.1")

	res, err := s.matching.Classify(context.Background(), model.KindClub, fbref(t, map[string]string{"name": "Arsenal", "country": "Russia"}))
	require.NoError(t, err)
	assert.Equal(t, model.StatusUncertain, res.Status)
	assert.Equal(t, model.ConfidenceLow, res.Confidence)
	assert.Len(t, res.Candidates, 1)
	assert.False(t, res.IsConfident())
}

// 同前缀的实体超过候选上限时，规范化相等的实体仍然可见
func TestClassify_NormalizedMatchBeyondCandidateLimit(t *testing.T) {
	s := newServices(t)
	for i := 0; i < 200; i++ {
		testutil.Club(t, s.db, fmt.Sprintf("Bayside %d", i), "eng.9")
	}
	bayern := testutil.Club(t, s.db, "Bayern München", "ger.1")

	res, err := s.matching.Classify(context.Background(), model.KindClub, fbref(t, map[string]string{"name": "Bayern Munchen", "country": "Germany"}))
	require.NoError(t, err)
	assert.Equal(t, model.StatusExactMatch, res.Status)
	require.NotNil(t, res.EntityID)
	assert.Equal(t, bayern.ID, *res.EntityID)
}

func TestClassify_NormalizedDuplicatesBeyondCandidateLimit(t *testing.T) {
	s := newServices(t)
	for i := 0; i < 200; i++ {
		testutil.Club(t, s.db, fmt.Sprintf("Bayside %d", i), "eng.9")
	}
	testutil.Club(t, s.db, "Bayern München", "ger.1")
	testutil.Club(t, s.db, "Bayern Munchen", "ger.1")

	res, err := s.matching.Classify(context.Background(), model.KindClub, fbref(t, map[string]string{"name": "Bayern Mùnchen", "country": "Germany"}))
	require.NoError(t, err)
	assert.Equal(t, model.StatusUncertain, res.Status)
	assert.Len(t, res.Candidates, 2)
	assert.Nil(t, res.EntityID)
}

func TestClassify_AliasMatch(t *testing.T) {
	s := newServices(t)
	spurs := testutil.Club(t, s.db, "Tottenham Hotspur", "eng.1")
	testutil.Alias(t, s.db, spurs, "transfermarkt", "Spurs")

	res, err := s.matching.Classify(context.Background(), model.KindClub, fbref(t, map[string]string{"name": "Spurs", "country": "England"}))
	require.NoError(t, err)
	assert.Equal(t, model.StatusAliasMatch, res.Status)
	assert.Equal(t, model.MatchTypeAlias, res.MatchType)
	assert.Equal(t, spurs.ID, *res.EntityID)
}

func TestClassify_AliasFromAlternateName(t *testing.T) {
	s := newServices(t)
	spurs := testutil.Club(t, s.db, "Tottenham Hotspur", "eng.1")
	testutil.Alias(t, s.db, spurs, "fotmob", "Tottenham")

	res, err := s.matching.Classify(context.Background(), model.KindClub, fbref(t, map[string]string{
		"name":      "THFC",
		"alt_names": "Tottenham|Spurs",
	}))
	require.NoError(t, err)
	assert.Equal(t, model.StatusAliasMatch, res.Status)
	assert.Equal(t, spurs.ID, *res.EntityID)
}

func TestClassify_NormalizedName(t *testing.T) {
	s := newServices(t)
	bayern := testutil.Club(t, s.db, "FC Bayern München", "ger.1")

	res, err := s.matching.Classify(context.Background(), model.KindClub, fbref(t, map[string]string{"name": "fc bayern munchen", "country": "Germany"}))
	require.NoError(t, err)
	assert.Equal(t, model.StatusExactMatch, res.Status)
	assert.Equal(t, bayern.ID, *res.EntityID)
}

func TestClassify_EmptyName(t *testing.T) {
	s := newServices(t)
	testutil.Club(t, s.db, "Arsenal", "eng.1")

	res, err := s.matching.Classify(context.Background(), model.KindClub, fbref(t, map[string]string{"name": "  ", "country": "England"}))
	require.NoError(t, err)
	assert.Equal(t, model.StatusNoMatch, res.Status)
	assert.Equal(t, model.ConfidenceNone, res.Confidence)
	assert.Empty(t, res.Candidates)
}

func TestClassify_PlayerFuzzy(t *testing.T) {
	s := newServices(t)
	liverpool := testutil.Club(t, s.db, "Liverpool", "eng.1")
	salah := testutil.Player(t, s.db, "Mohamed Salah", liverpool)

	res, err := s.matching.Classify(context.Background(), model.KindPlayer, fbref(t, map[string]string{"name": "Mo Salah", "squad": "Liverpool FC"}))
	require.NoError(t, err)
	assert.Equal(t, model.StatusExactMatch, res.Status)
	assert.Equal(t, model.MatchTypeFuzzy, res.MatchType)
	assert.Equal(t, salah.ID, *res.EntityID)
	assert.Equal(t, "Liverpool", res.Candidates[0].Context)
}

func TestClassify_PlayerClubFilter(t *testing.T) {
	s := newServices(t)
	fulham := testutil.Club(t, s.db, "Fulham", "eng.1")
	everton := testutil.Club(t, s.db, "Everton", "eng.1")
	testutil.Player(t, s.db, "James Smith", fulham)
	smith := testutil.Player(t, s.db, "James Smith", everton)

	res, err := s.matching.Classify(context.Background(), model.KindPlayer, fbref(t, map[string]string{"name": "James Smith", "squad": "Brentford"}))
	require.NoError(t, err)
	// 两个候选的所属球队都对不上
	assert.Equal(t, model.StatusUncertain, res.Status)
	assert.Equal(t, model.ConfidenceLow, res.Confidence)
	assert.Len(t, res.Candidates, 2)

	res, err = s.matching.Classify(context.Background(), model.KindPlayer, fbref(t, map[string]string{"name": "James Smith", "squad": "Everton FC"}))
	require.NoError(t, err)
	assert.Equal(t, model.StatusExactMatch, res.Status)
	assert.Equal(t, smith.ID, *res.EntityID)
}

func TestClassify_FuzzyAmbiguityIsQueued(t *testing.T) {
	s := newServices(t)
	club := testutil.Club(t, s.db, "Real Sociedad", "esp.1")
	testutil.Player(t, s.db, "Mikel Oyarzabal", club)
	testutil.Player(t, s.db, "Mikel Merino", club)

	res, err := s.matching.Classify(context.Background(), model.KindPlayer, fbref(t, map[string]string{"name": "Mikel", "squad": "Real Sociedad"}))
	require.NoError(t, err)
	assert.Equal(t, model.StatusUncertain, res.Status)
	assert.Len(t, res.Candidates, 2)
}

func TestClassify_StubsAreInvisible(t *testing.T) {
	s := newServices(t)
	testutil.Club(t, s.db, "Arsenal", "eng.1", func(e *model.Entity) { e.IsStub = true })

	res, err := s.matching.Classify(context.Background(), model.KindClub, fbref(t, map[string]string{"name": "Arsenal"}))
	require.NoError(t, err)
	assert.Equal(t, model.StatusNoMatch, res.Status)
}

func TestClassifyBatch(t *testing.T) {
	s := newServices(t)
	testutil.Club(t, s.db, "Arsenal", "eng.1")
	testutil.Club(t, s.db, "Real Madrid", "esp.1")
	testutil.Club(t, s.db, "Real Madrid", "usa.2")

	rows := fbrefRows(t,
		map[string]string{"name": "Arsenal", "country": "England"},
		map[string]string{"name": "Real Madrid"},
		map[string]string{"name": "Nowhere Rovers"},
	)
	out, err := s.matching.ClassifyBatch(context.Background(), model.KindClub, rows)
	require.NoError(t, err)
	require.Len(t, out.Results, 3)
	assert.Equal(t, 1, out.Counts[model.StatusExactMatch])
	assert.Equal(t, 1, out.Counts[model.StatusUncertain])
	assert.Equal(t, 1, out.Counts[model.StatusNoMatch])
	assert.True(t, out.Counts.NeedsReview())
	assert.Equal(t, 2, out.Results[2].RowIndex)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.matching.ClassifyBatch(ctx, model.KindClub, rows)
	require.ErrorIs(t, err, context.Canceled)
}
