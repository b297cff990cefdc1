package ui

import "embed"

//go:embed static/app.css static/favicon.svg
var staticFS embed.FS

func Stylesheet() []byte {
	b, _ := staticFS.ReadFile("static/app.css")
	return b
}

func Favicon() []byte {
	b, _ := staticFS.ReadFile("static/favicon.svg")
	return b
}
