package interfaces

// Row 数据源的一行原始数据。核心逻辑只通过这些访问器读取，不依赖具体文件格式
type Row interface {
	Provider() string               // 数据来源（fbref/transfermarkt/...）
	PrimaryName() string            // 主展示名
	Country() string                // 国家（球队所在国 / 球员国籍）
	Club() string                   // 所属球队名（球员行）
	Position() string               // 场上位置
	Competition() string            // 联赛编码（球队行，首次导入建档用）
	NameVariations() []string       // 主名 + 别名，去重
	ProviderIDs() map[string]string // entities 外部 ID 列名 -> 值（已从源列名翻译）
	Stats() map[string]float64      // 数值统计
	Fields() map[string]string      // 原始字段，用于序列化进审核队列
}
