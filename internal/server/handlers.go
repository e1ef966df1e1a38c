package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/pagecompiler/internal/logfields"
	"git.home.luguber.info/inful/pagecompiler/internal/routes"
	"git.home.luguber.info/inful/pagecompiler/internal/version"
)

func (s *Server) locale(r *http.Request) string {
	if l := r.URL.Query().Get("locale"); l != "" {
		return l
	}
	return s.opts.DefaultLocale
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	segments := strings.FieldsFunc(r.PathValue("path"), func(c rune) bool { return c == '/' })
	locale := s.locale(r)

	if r.URL.Query().Has("metadata") {
		meta, err := s.opts.Loader.ImportMetadata(r.Context(), segments, locale)
		if err != nil {
			s.errorAdapter.WriteErrorResponse(w, r, err)
			return
		}
		s.writeJSON(w, r, MetadataResponse{Metadata: meta})
		return
	}

	page, err := s.opts.Loader.ImportPage(r.Context(), segments, locale)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	var body bytes.Buffer
	if err := page.Default(&body); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, r, PageResponse{
		Route:    page.Resolved.Route,
		Locale:   page.Resolved.Locale,
		Fallback: page.Resolved.Fallback,
		Metadata: page.Metadata,
		TOC:      page.TOC,
		Body:     body.String(),
	})
}

func (s *Server) handlePageMap(w http.ResponseWriter, r *http.Request) {
	locale := s.locale(r)
	route := r.URL.Query().Get("route")
	snap := s.registry().Snapshot()
	if snap == nil {
		s.errorAdapter.WriteErrorResponse(w, r, &routes.NotFoundError{Route: "/", Locale: locale})
		return
	}
	pm, ok := snap.PageMaps[locale]
	if !ok {
		s.errorAdapter.WriteErrorResponse(w, r, &routes.NotFoundError{Route: "/", Locale: locale})
		return
	}
	if route == "" {
		s.writeJSON(w, r, PageMapResponse{
			Locale:          locale,
			Route:           "/",
			PageMap:         pm.Items(),
			RouteToFilepath: snap.Tables[locale],
		})
		return
	}
	id, ok := pm.FindFolder(route)
	if !ok {
		s.errorAdapter.WriteErrorResponse(w, r, &routes.NotFoundError{Route: route, Locale: locale})
		return
	}
	s.writeJSON(w, r, PageMapResponse{Locale: locale, Route: pm.Node(id).Route, PageMap: pm.ItemsAt(id)})
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	locale := s.locale(r)
	snap := s.registry().Snapshot()
	if snap == nil || snap.Tables[locale] == nil {
		s.errorAdapter.WriteErrorResponse(w, r, &routes.NotFoundError{Route: "/", Locale: locale})
		return
	}
	s.writeJSON(w, r, snap.Tables[locale])
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Version:   version.Version,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(s.startTime).Seconds(),
		Routes:    map[string]int{},
	}
	if snap := s.registry().Snapshot(); snap != nil {
		for locale, t := range snap.Tables {
			resp.Routes[locale] = t.Len()
		}
	} else {
		resp.Status = "starting"
	}
	s.writeJSON(w, r, resp)
}

// writeJSON encodes into a buffer first so a failed encode never sends a
// partial body. ?pretty=1 indents the output.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if p := r.URL.Query().Get("pretty"); p == "1" || p == "true" {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Error("Failed writing JSON response body", logfields.Error(err))
	}
}
