// Package card 把文件名序列渲染为“Files”卡片。
//
// 约束：
// - 纯函数：不做 I/O 读取、不持有输入、不报告业务错误（只有写出失败会返回 error）
// - 缺省与空序列都走空态分支：badge 为 "0 files"，body 只有一条 "No files"
package card

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/John-Robertt/filecard/internal/domain"
)

const (
	FormatHTML = "html"
	FormatText = "text"
	FormatJSON = "json"
)

// Build 把 FileList 转换为视图模型。
func Build(files domain.FileList) domain.Card {
	n := files.Count()
	c := domain.Card{
		Title: domain.Title,
		Count: n,
		Badge: Badge(n),
	}

	if files.Empty() {
		c.Rows = []domain.Row{{
			Key:      domain.FallbackKey,
			Icon:     domain.IconFile,
			Text:     domain.FallbackText,
			Fallback: true,
		}}
		return c
	}

	c.Rows = make([]domain.Row, 0, n)
	for i, name := range files.Names {
		c.Rows = append(c.Rows, domain.Row{
			Key:  i,
			Icon: domain.IconFile,
			Text: name,
		})
	}
	return c
}

// Badge 返回头部计数徽标的文本。
func Badge(n int) string {
	return fmt.Sprintf("%d files", n)
}

// ParseFormat 规范化输出格式；空串视为 html。
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "":
		return FormatHTML, nil
	case FormatHTML, FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("format 只能是 html、text 或 json，实际是 %q", s)
	}
}

// Render 按 format 输出卡片。
func Render(w io.Writer, format string, files domain.FileList) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	c := Build(files)
	switch f {
	case FormatText:
		return RenderText(w, c)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	default:
		return RenderHTML(w, c)
	}
}

// ContentType 返回 format 对应的 HTTP Content-Type。
func ContentType(format string) string {
	switch format {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/html; charset=utf-8"
	}
}
