package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mdview/mdv/internal/workspace"
)

//go:embed templates/*.html
var templateFS embed.FS

var viewTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type breadcrumbItem struct {
	Name   string
	Path   string
	IsLast bool
}

type fileEntry struct {
	Name     string
	Path     string
	IsDir    bool
	Size     string
	Modified string
}

type directoryData struct {
	Breadcrumbs   []breadcrumbItem
	Entries       []fileEntry
	HasParent     bool
	ParentPath    string
	WorkspaceID   string
	WorkspaceName string
}

type markdownData struct {
	Breadcrumbs   []breadcrumbItem
	Content       template.HTML
	Filename      string
	FileSize      string
	RawPath       string
	WorkspaceID   string
	WorkspaceName string
}

type indexData struct {
	Workspaces []workspace.Descriptor
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, "index.html", indexData{Workspaces: s.service.List()})
}

func (s *Server) handleViewRoot(w http.ResponseWriter, r *http.Request) {
	s.serveView(w, r, r.PathValue("id"), "")
}

func (s *Server) handleViewPath(w http.ResponseWriter, r *http.Request) {
	s.serveView(w, r, r.PathValue("id"), r.PathValue("path"))
}

// serveView renders a confined path inside a workspace: directories become
// listings, markdown files become rendered pages, anything else is served
// raw. Every rejection is the same 404.
func (s *Server) serveView(w http.ResponseWriter, r *http.Request, id, urlPath string) {
	d, ok := s.service.Lookup(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	fullPath, err := workspace.Resolve(d.Root, urlPath)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch {
	case info.IsDir():
		s.renderDirectory(w, d, fullPath, urlPath)
	case filepath.Ext(fullPath) == ".md":
		s.renderMarkdownFile(w, d, fullPath, urlPath)
	default:
		serveStaticFile(w, fullPath)
	}
}

func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	d, ok := s.service.Lookup(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	fullPath, err := workspace.Resolve(d.Root, r.PathValue("path"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	serveStaticFile(w, fullPath)
}

func (s *Server) renderDirectory(w http.ResponseWriter, d workspace.Descriptor, fullPath, urlPath string) {
	dirEntries, err := os.ReadDir(fullPath)
	if err != nil {
		http.Error(w, "failed to read directory", http.StatusInternalServerError)
		return
	}

	baseURL := workspace.ViewURL(d.ID)
	urlPath = strings.Trim(urlPath, "/")

	entries := make([]fileEntry, 0, len(dirEntries))
	for _, entry := range dirEntries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		isDir := entry.IsDir()
		if isDir {
			// Hide directories with no markdown anywhere beneath them.
			if !containsMarkdown(filepath.Join(fullPath, name)) {
				continue
			}
		} else if filepath.Ext(name) != ".md" {
			continue
		}

		size := "-"
		modified := "-"
		if info, err := entry.Info(); err == nil {
			if !isDir {
				size = formatFileSize(info.Size())
			}
			modified = info.ModTime().Format("2006-01-02 15:04")
		}

		entryPath := baseURL + "/" + name
		if urlPath != "" {
			entryPath = baseURL + "/" + urlPath + "/" + name
		}

		entries = append(entries, fileEntry{
			Name:     name,
			Path:     entryPath,
			IsDir:    isDir,
			Size:     size,
			Modified: modified,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	parentPath := baseURL
	if parts := splitURLPath(urlPath); len(parts) > 1 {
		parentPath = baseURL + "/" + strings.Join(parts[:len(parts)-1], "/")
	}

	s.renderTemplate(w, "directory.html", directoryData{
		Breadcrumbs:   breadcrumbs(d.ID, d.Name, urlPath),
		Entries:       entries,
		HasParent:     urlPath != "",
		ParentPath:    parentPath,
		WorkspaceID:   d.ID,
		WorkspaceName: d.Name,
	})
}

func (s *Server) renderMarkdownFile(w http.ResponseWriter, d workspace.Descriptor, fullPath, urlPath string) {
	source, err := os.ReadFile(fullPath)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	content, err := s.renderer.Render(source)
	if err != nil {
		http.Error(w, "failed to render markdown", http.StatusInternalServerError)
		return
	}

	fileSize := "-"
	if info, err := os.Stat(fullPath); err == nil {
		fileSize = formatFileSize(info.Size())
	}

	urlPath = strings.Trim(urlPath, "/")
	s.renderTemplate(w, "markdown.html", markdownData{
		Breadcrumbs:   breadcrumbs(d.ID, d.Name, urlPath),
		Content:       template.HTML(content),
		Filename:      filepath.Base(fullPath),
		FileSize:      fileSize,
		RawPath:       "/_raw/" + d.ID + "/" + urlPath,
		WorkspaceID:   d.ID,
		WorkspaceName: d.Name,
	})
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := viewTemplates.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error(context.Background(), err, "template render failed", "template", name)
	}
}

func serveStaticFile(w http.ResponseWriter, fullPath string) {
	content, err := os.ReadFile(fullPath)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(fullPath))
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}
	if strings.HasPrefix(contentType, "text/") && !strings.Contains(contentType, "charset") {
		contentType += "; charset=utf-8"
	}

	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(content)
}

// breadcrumbs builds the trail root > workspace > path segments.
func breadcrumbs(workspaceID, workspaceName, urlPath string) []breadcrumbItem {
	basePath := workspace.ViewURL(workspaceID)
	parts := splitURLPath(urlPath)

	items := []breadcrumbItem{
		{Name: "root", Path: "/"},
		{Name: workspaceName, Path: basePath, IsLast: len(parts) == 0},
	}

	currentPath := basePath
	for i, part := range parts {
		currentPath += "/" + part
		items = append(items, breadcrumbItem{
			Name:   part,
			Path:   currentPath,
			IsLast: i == len(parts)-1,
		})
	}
	return items
}

func splitURLPath(urlPath string) []string {
	var parts []string
	for _, p := range strings.Split(urlPath, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// containsMarkdown reports whether any markdown file exists at or beneath
// path, ignoring dot-entries.
func containsMarkdown(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return filepath.Ext(path) == ".md"
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if containsMarkdown(filepath.Join(path, name)) {
			return true
		}
	}
	return false
}

func formatFileSize(size int64) string {
	const (
		kb = int64(1024)
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case size >= gb:
		return fmt.Sprintf("%.1f GB", float64(size)/float64(gb))
	case size >= mb:
		return fmt.Sprintf("%.1f MB", float64(size)/float64(mb))
	case size >= kb:
		return fmt.Sprintf("%.1f KB", float64(size)/float64(kb))
	default:
		return fmt.Sprintf("%d B", size)
	}
}

