// Package testutil 测试用的内存数据库与数据构造
package testutil

import (
	"testing"

	"RosterSync/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 每个测试一个独立的内存 SQLite，并执行与线上一致的 AutoMigrate
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库每个连接都是独立数据库，只能保留一个连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return db
}

// NewLogger 静默日志
func NewLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// Club 插入一个球队
func Club(t *testing.T, db *gorm.DB, name, competition string, opts ...func(*model.Entity)) *model.Entity {
	t.Helper()
	e := &model.Entity{Kind: model.KindClub, Name: name, Competition: competition}
	for _, o := range opts {
		o(e)
	}
	require.NoError(t, db.Create(e).Error)
	return e
}

// Player 插入一个球员
func Player(t *testing.T, db *gorm.DB, name string, club *model.Entity, opts ...func(*model.Entity)) *model.Entity {
	t.Helper()
	e := &model.Entity{Kind: model.KindPlayer, Name: name}
	if club != nil {
		id := club.ID
		e.ClubID = &id
	}
	for _, o := range opts {
		o(e)
	}
	require.NoError(t, db.Create(e).Error)
	return e
}

// WithProviderID 构造时设置外部 ID
func WithProviderID(column, value string) func(*model.Entity) {
	return func(e *model.Entity) { e.SetProviderID(column, value) }
}

// Alias 插入别名
func Alias(t *testing.T, db *gorm.DB, entity *model.Entity, provider, name string) {
	t.Helper()
	require.NoError(t, db.Create(&model.EntityAlias{EntityID: entity.ID, Provider: provider, AliasName: name}).Error)
}

// Reload 重新读取实体
func Reload(t *testing.T, db *gorm.DB, id uint64) *model.Entity {
	t.Helper()
	var e model.Entity
	require.NoError(t, db.First(&e, id).Error)
	return &e
}
