package session

import (
	"path/filepath"
	"strings"
)

// pathInfo is the fs_path_entry row's file_path_* columns, grounded on
// original_source/src/resource_serde/src/lib.rs's `extract_path_info`.
type pathInfo struct {
	AbsPath    string
	RelParent  string
	Rel        string
	Basename   string
	Extension  string
}

func extractPathInfo(root, path string) pathInfo {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	relParent := filepath.Dir(rel)
	if relParent == "." {
		relParent = ""
	}
	basename := filepath.Base(path)
	ext := strings.TrimPrefix(filepath.Ext(basename), ".")
	return pathInfo{
		AbsPath:   path,
		RelParent: relParent,
		Rel:       rel,
		Basename:  basename,
		Extension: ext,
	}
}
