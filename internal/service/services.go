package service

import (
	"RosterSync/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Services 一组共用同一个 DB 与日志器的服务，main 与测试都从这里装配
type Services struct {
	Lookup   *LookupService
	Matching *MatchingService
	Applier  *ApplierService
	Stubs    *StubService
	Review   *ReviewService
	Import   *ImportService
}

func NewServices(db *gorm.DB, logger *logrus.Logger, candidateLimit int) *Services {
	lookup := NewLookupService(repository.NewEntityRepository(db), repository.NewAliasRepository(db), candidateLimit)
	matching := NewMatchingService(lookup, logger)
	applier := NewApplierService(db, logger)
	stubs := NewStubService(db, applier, logger)
	review := NewReviewService(db, lookup, applier, stubs, logger)
	return &Services{
		Lookup:   lookup,
		Matching: matching,
		Applier:  applier,
		Stubs:    stubs,
		Review:   review,
		Import:   NewImportService(db, matching, applier, stubs, review, logger),
	}
}
