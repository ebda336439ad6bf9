package service_test

import (
	"testing"

	"RosterSync/internal/adapter"
	"RosterSync/internal/interfaces"
	"RosterSync/internal/service"
	"RosterSync/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type services struct {
	db       *gorm.DB
	lookup   *service.LookupService
	matching *service.MatchingService
	applier  *service.ApplierService
	stubs    *service.StubService
	review   *service.ReviewService
	importer *service.ImportService
}

func newServices(t *testing.T) *services {
	t.Helper()
	db := testutil.NewDB(t)
	all := service.NewServices(db, testutil.NewLogger(), 200)
	return &services{
		db:       db,
		lookup:   all.Lookup,
		matching: all.Matching,
		applier:  all.Applier,
		stubs:    all.Stubs,
		review:   all.Review,
		importer: all.Import,
	}
}

func fbref(t *testing.T, fields map[string]string) interfaces.Row {
	t.Helper()
	p, err := adapter.GetProfile("fbref")
	require.NoError(t, err)
	return p.Wrap(fields)
}

func fbrefRows(t *testing.T, fields ...map[string]string) []interfaces.Row {
	t.Helper()
	rows := make([]interfaces.Row, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, fbref(t, f))
	}
	return rows
}
