package domain

const (
	// Title 是卡片头部的固定标题。
	Title = "Files"
	// FallbackText 是空态行文本。
	FallbackText = "No files"
	// IconFile 是每一行的图标名（与 lucide 的 file-text 同名）。
	IconFile = "file-text"
	// CardWidth 是卡片容器的固定宽度（px）。
	CardWidth = 448
)

// FallbackKey 是空态行的 Key（正常行的 Key 是其下标，>= 0）。
const FallbackKey = -1

// Card 是渲染前的视图模型：HTML/文本/JSON 三种输出都只消费它。
//
// 不变量：
// - Badge == "<Count> files"
// - Count > 0 时 len(Rows) == Count，且 Rows[i].Key == i
// - Count == 0 时 Rows 只有一条 Fallback 行
type Card struct {
	Title string `json:"title"`
	Count int    `json:"count"`
	Badge string `json:"badge"`
	Rows  []Row  `json:"rows"`
}

type Row struct {
	Key      int    `json:"key"`
	Icon     string `json:"icon"`
	Text     string `json:"text"`
	Fallback bool   `json:"fallback,omitempty"`
}
