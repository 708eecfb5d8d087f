package card

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/filecard/internal/domain"
)

// NotCardError 表示输入 HTML 中找不到文件卡片结构。
type NotCardError struct {
	Reason string
}

func (e *NotCardError) Error() string {
	return "不是文件卡片：" + e.Reason
}

func IsNotCard(err error) bool {
	var e *NotCardError
	return errors.As(err, &e)
}

// Summary 是从已渲染 HTML 中读回的卡片内容。
type Summary struct {
	Title string `json:"title"`
	Badge string `json:"badge"`
	// BadgeCount 是从 Badge 解析出的数字；无法解析时为 -1。
	BadgeCount int      `json:"badge_count"`
	Rows       []string `json:"rows"`
	Fallback   bool     `json:"fallback"`
}

// Inspect 解析 RenderHTML 的输出（允许嵌在完整页面里，取第一张卡片）。
//
// 必须是纯函数：只依赖输入 html。
func Inspect(html []byte) (Summary, error) {
	if len(bytes.TrimSpace(html)) == 0 {
		return Summary{}, &NotCardError{Reason: "html 为空"}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return Summary{}, err
	}

	sel := doc.Find("section.file-card").First()
	if sel.Length() == 0 {
		return Summary{}, &NotCardError{Reason: "缺少 section.file-card"}
	}

	title := sel.Find(".file-card-title").First()
	badge := sel.Find(".file-card-badge").First()
	if title.Length() == 0 || badge.Length() == 0 {
		return Summary{}, &NotCardError{Reason: "缺少标题或计数徽标"}
	}

	s := Summary{
		Title: strings.TrimSpace(title.Text()),
		Badge: strings.TrimSpace(badge.Text()),
		Rows:  []string{},
	}
	s.BadgeCount = parseBadge(s.Badge)

	sel.Find(".file-card-body > li.file-card-row").Each(func(_ int, li *goquery.Selection) {
		if li.HasClass("file-card-empty") {
			s.Fallback = true
		}
		s.Rows = append(s.Rows, li.Find(".file-card-name").First().Text())
	})
	return s, nil
}

// Check 校验卡片的两条不变量：
// 1) badge 计数等于行数（空态时为 0）
// 2) 空态时只有一条 "No files" 行；非空时没有空态行
func (s Summary) Check() error {
	if s.Title != domain.Title {
		return fmt.Errorf("标题应为 %q，实际是 %q", domain.Title, s.Title)
	}
	if s.BadgeCount < 0 {
		return fmt.Errorf("无法解析计数徽标：%q", s.Badge)
	}
	if s.BadgeCount == 0 {
		if len(s.Rows) != 1 || !s.Fallback || s.Rows[0] != domain.FallbackText {
			return fmt.Errorf("空态应只有一条 %q 行，实际 rows=%q fallback=%v", domain.FallbackText, s.Rows, s.Fallback)
		}
		return nil
	}
	if s.Fallback {
		return fmt.Errorf("badge=%d 但出现了空态行", s.BadgeCount)
	}
	if len(s.Rows) != s.BadgeCount {
		return fmt.Errorf("badge=%d 与行数 %d 不一致", s.BadgeCount, len(s.Rows))
	}
	return nil
}

func parseBadge(badge string) int {
	num, ok := strings.CutSuffix(badge, " files")
	if !ok || num == "" {
		return -1
	}
	// 只接受 Badge 会产出的形态：纯十进制数字，无符号、无前导 0。
	for _, r := range num {
		if r < '0' || r > '9' {
			return -1
		}
	}
	if len(num) > 1 && num[0] == '0' {
		return -1
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return -1
	}
	return n
}
