package httpapi

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-now/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// pageData is the view model for index.html.
type pageData struct {
	State session.State
	Theme string
}

func renderPage(c *fiber.Ctx, s session.State) error {
	var buf bytes.Buffer
	if err := pageTmpl.ExecuteTemplate(&buf, "index.html", pageData{State: s, Theme: s.Theme()}); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}
