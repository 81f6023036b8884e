package handlers

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"lukechampine.com/blake3"
)

const openAPIPath = "/v1/openapi.json"

//go:embed openapi.json
var openAPIDoc []byte

type apiInfo struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description"`
	SpecURL     string `json:"-"`
}

var (
	openAPIInfo = mustAPIInfo(openAPIDoc)
	openAPIETag = contentETag(openAPIDoc)
)

func mustAPIInfo(doc []byte) apiInfo {
	var parsed struct {
		Info apiInfo `json:"info"`
	}
	if err := json.Unmarshal(doc, &parsed); err != nil {
		panic("openapi.json: " + err.Error())
	}
	parsed.Info.SpecURL = openAPIPath
	return parsed.Info
}

func contentETag(b []byte) string {
	sum := blake3.Sum256(b)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}

// OpenAPIJSON serves the embedded API description. The document only changes
// with a new build, so clients may revalidate with If-None-Match.
func (a *App) OpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", openAPIETag)
	w.Header().Set("Cache-Control", "public, max-age=300")
	if r.Header.Get("If-None-Match") == openAPIETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPIDoc)
}

// OpenAPIDocs renders the Redoc reference page for the embedded document.
func (a *App) OpenAPIDocs(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "docs", openAPIInfo); err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
