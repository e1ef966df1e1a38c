package server

import (
	"time"

	"git.home.luguber.info/inful/pagecompiler/internal/compile"
	"git.home.luguber.info/inful/pagecompiler/internal/pagemap"
	"git.home.luguber.info/inful/pagecompiler/internal/routes"
)

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status    string         `json:"status"`
	Version   string         `json:"version"`
	Timestamp time.Time      `json:"timestamp"`
	Uptime    float64        `json:"uptime"`
	Routes    map[string]int `json:"routes"`
}

// PageResponse is an imported page.
type PageResponse struct {
	Route    string            `json:"route"`
	Locale   string            `json:"locale,omitempty"`
	Fallback bool              `json:"fallback,omitempty"`
	Metadata compile.Metadata  `json:"metadata"`
	TOC      []compile.Heading `json:"toc"`
	Body     string            `json:"body"`
}

// MetadataResponse answers a ?metadata page request.
type MetadataResponse struct {
	Metadata compile.Metadata `json:"metadata"`
}

// PageMapResponse is a locale's page map or a sub-map.
type PageMapResponse struct {
	Locale          string         `json:"locale,omitempty"`
	Route           string         `json:"route"`
	PageMap         []pagemap.Item `json:"pageMap"`
	RouteToFilepath *routes.Table  `json:"routeToFilepath,omitempty"`
}
