package model

// AllModels 需要 AutoMigrate 的表，按依赖顺序
func AllModels() []interface{} {
	return []interface{}{
		&Entity{},
		&EntityAlias{},
		&EntityStat{},
		&ReviewQueueItem{},
	}
}
