package card

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/John-Robertt/filecard/internal/domain"
)

const (
	// TextWidth 是终端卡片的总列宽（含边框）。
	TextWidth = 48
	// 左右边框各 1 列 + 左右留白各 1 列。
	textContentWidth = TextWidth - 4

	textIcon = "▤"
)

// 固定按非东亚环境计宽：方框字符与图标恒为 1 列，输出不随 LANG 变化。
var widthCond = &runewidth.Condition{EastAsianWidth: false, StrictEmojiNeutral: true}

// RenderText 把卡片画成固定宽度的终端方框。
//
// 宽度按显示列计算（CJK 文件名占 2 列）；超长文件名截断为 "..." 结尾，保证方框不变形。
func RenderText(w io.Writer, c domain.Card) error {
	bw := bufio.NewWriter(w)

	hr := strings.Repeat("─", TextWidth-2)
	bw.WriteString("┌" + hr + "┐\n")
	writeBoxLine(bw, headerLine(c.Title, c.Badge))
	bw.WriteString("├" + hr + "┤\n")
	for _, r := range c.Rows {
		name := widthCond.Truncate(printable(r.Text), textContentWidth-widthCond.StringWidth(textIcon)-1, "...")
		writeBoxLine(bw, textIcon+" "+name)
	}
	bw.WriteString("└" + hr + "┘\n")

	return bw.Flush()
}

// printable 把控制字符（换行、制表符等）替换为 '?'。
// 它们在 runewidth 下宽度为 0，原样输出会拆开或错位方框。
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return '?'
		}
		return r
	}, s)
}

func headerLine(title, badge string) string {
	gap := textContentWidth - widthCond.StringWidth(title) - widthCond.StringWidth(badge)
	if gap < 1 {
		// 标题是固定短文本，这里只在 badge 极长时触发。
		title = widthCond.Truncate(title, textContentWidth-widthCond.StringWidth(badge)-1, "")
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + badge
}

func writeBoxLine(bw *bufio.Writer, s string) {
	s = widthCond.Truncate(s, textContentWidth, "")
	bw.WriteString("│ " + widthCond.FillRight(s, textContentWidth) + " │\n")
}
