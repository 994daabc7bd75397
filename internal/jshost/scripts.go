package jshost

import (
	"embed"
	"fmt"
	"path"
)

//go:embed scripts/*.js
var scripts embed.FS

const (
	pageScript       = "page.js"
	mainThreadScript = "main_thread.js"
	workerScript     = "worker.js"
)

// script returns the embedded script a page URL points at.
func script(url string) (string, error) {
	b, err := scripts.ReadFile(path.Join("scripts", path.Base(url)))
	if err != nil {
		return "", fmt.Errorf("jshost: no script %q: %w", url, err)
	}
	return string(b), nil
}
