package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FileList 是宿主提供给卡片的文件名序列（有序、可缺省）。
//
// 约束：
// - Present=false 表示“未提供”；此时 Names 必须为空
// - 卡片只读取，不修改、不持有（渲染结束即释放）
// - 缺省与空序列在渲染上等价（都走空态分支），但宿主仍可区分二者
type FileList struct {
	Names   []string
	Present bool
}

// Absent 返回“未提供”的 FileList。
func Absent() FileList { return FileList{} }

// Of 返回一个已提供的 FileList（names 可以为空）。
// 会复制一份，避免调用方后续修改影响渲染。
func Of(names ...string) FileList {
	return FileList{Names: append([]string{}, names...), Present: true}
}

// Count 返回序列长度；未提供时为 0。
func (l FileList) Count() int {
	if !l.Present {
		return 0
	}
	return len(l.Names)
}

// Empty 判断是否应渲染空态行：未提供或长度为 0。
func (l FileList) Empty() bool {
	return l.Count() == 0
}

// Props 是宿主侧输入契约：{"files": [...]}。
//
// - 键缺失 / null：Files 为 Absent
// - []：Files 为已提供的空序列
// - 非数组或元素不是字符串：解码失败（由宿主处理，卡片永远不会看到）
type Props struct {
	Files FileList
}

type propsWire struct {
	Files json.RawMessage `json:"files,omitempty"`
}

func (p Props) MarshalJSON() ([]byte, error) {
	if !p.Files.Present {
		return []byte(`{}`), nil
	}
	names := p.Files.Names
	if names == nil {
		// json.Marshal(nil slice) => "null"，会被读回成 Absent。
		names = []string{}
	}
	return json.Marshal(struct {
		Files []string `json:"files"`
	}{Files: names})
}

func (p *Props) UnmarshalJSON(b []byte) error {
	var w propsWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	raw := bytes.TrimSpace(w.Files)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		p.Files = Absent()
		return nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return fmt.Errorf("files 必须是字符串数组：%w", err)
	}
	p.Files = Of(names...)
	return nil
}
