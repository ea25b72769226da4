package webserver

import (
	"bytes"
	"html/template"
	"os"
	"sort"

	"github.com/dcluna/elnode/http"
	"github.com/dcluna/elnode/http/mime"
	"github.com/dcluna/elnode/http/status"
)

// Listing is a directory index. Directories get a trailing slash so links
// dispatch without a redirect hop.
type Listing struct {
	Dir     string  `json:"dir"`
	Entries []Entry `json:"entries"`
}

type Entry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Dir  bool   `json:"dir"`
}

func makeListing(dir string, entries []os.DirEntry) Listing {
	listing := Listing{Dir: dir, Entries: make([]Entry, 0, len(entries))}

	for _, entry := range entries {
		e := Entry{Name: entry.Name(), Dir: entry.IsDir()}
		if e.Dir {
			e.Name += "/"
		} else if info, err := entry.Info(); err == nil {
			e.Size = info.Size()
		}

		listing.Entries = append(listing.Entries, e)
	}

	sort.Slice(listing.Entries, func(i, j int) bool {
		return listing.Entries[i].Name < listing.Entries[j].Name
	})

	return listing
}

var indexTemplate = template.Must(template.New("index").Parse(`<html>
<head><title>{{.Dir}}</title></head>
<body>
<h1>{{.Dir}}</h1>
<ul>
{{- range .Entries}}
<li><a href="{{.Name}}">{{.Name}}</a></li>
{{- end}}
</ul>
</body>
</html>
`))

func (w *Webserver) renderIndex(conn *http.Conn, listing Listing) {
	var buff bytes.Buffer
	if err := indexTemplate.Execute(&buff, listing); err != nil {
		w.log.Error("failed to render directory index", "dir", listing.Dir, "error", err)
		_ = conn.Start(status.ServerError, http.Header{Key: "Content-type", Value: mime.HTML})
		_ = conn.Return([]byte("<h1>Server Error</h1>"))

		return
	}

	_ = conn.Start(status.OK, http.Header{Key: "Content-type", Value: mime.HTML})
	_ = conn.Return(buff.Bytes())
}
