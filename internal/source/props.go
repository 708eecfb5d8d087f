package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/John-Robertt/filecard/internal/domain"
)

// MaxPropsBytes 限制 props JSON 的大小（CLI 与 HTTP 共用）。
const MaxPropsBytes = 1 << 20

// ReadProps 解码宿主传入的 props：{"files": [...]}。
// 空输入视为未提供 files。
func ReadProps(r io.Reader) (domain.FileList, error) {
	b, err := io.ReadAll(io.LimitReader(r, MaxPropsBytes+1))
	if err != nil {
		return domain.FileList{}, err
	}
	if len(b) > MaxPropsBytes {
		return domain.FileList{}, fmt.Errorf("props 超过 %d 字节", MaxPropsBytes)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return domain.Absent(), nil
	}

	var p domain.Props
	if err := json.Unmarshal(b, &p); err != nil {
		return domain.FileList{}, fmt.Errorf("props 无效：%w", err)
	}
	return p.Files, nil
}
