package server

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderMarkdown converts markdown text to HTML (safe to inject as template.HTML).
// Raw HTML in the input is not passed through.
func RenderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	_ = md.Convert([]byte(src), &buf)
	return template.HTML(buf.String())
}

type statusPage struct {
	Body      template.HTML
	Hostname  string
	Generated string
}

func (a *App) handleStatusPage(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString("# etcapi\n\n")
	if n := strings.TrimSpace(a.notice); n != "" {
		b.WriteString(n)
		b.WriteString("\n\n")
	}
	b.WriteString("| Database | Format | Backend | Status |\n|---|---|---|---|\n")
	for _, name := range a.dbs.Names() {
		db, ok := a.dbs.Get(name)
		if !ok {
			continue
		}
		st := db.Status(r.Context())
		state := string(st.State)
		if err := st.Err(); err != nil {
			state += ": " + err.Error()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", cell(db.Name()), cell(db.Format()), cell(db.Backend()), cell(state))
	}
	host, _ := os.Hostname()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := a.status.Execute(w, statusPage{
		Body:      RenderMarkdown(b.String()),
		Hostname:  host,
		Generated: time.Now().Format(time.RFC1123),
	})
	if err != nil {
		a.log.Error("status page: %v", err)
	}
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
