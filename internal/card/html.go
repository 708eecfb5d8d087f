package card

import (
	"embed"
	"html/template"
	"io"

	"github.com/John-Robertt/filecard/internal/domain"
)

//go:embed templates/card.html
var templateFS embed.FS

var cardTmpl = template.Must(template.ParseFS(templateFS, "templates/card.html"))

type htmlData struct {
	Width int
	Card  domain.Card
}

// RenderHTML 输出卡片的 HTML 片段（文件名由 html/template 负责转义）。
func RenderHTML(w io.Writer, c domain.Card) error {
	return cardTmpl.ExecuteTemplate(w, "card", htmlData{Width: domain.CardWidth, Card: c})
}
