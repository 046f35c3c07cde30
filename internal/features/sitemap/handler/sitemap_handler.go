package handler

import (
	"encoding/xml"
	"net/http"
	"time"

	"cakeshop-backend/internal/core/logger"
	"cakeshop-backend/internal/features/cakes/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// staticPages are the storefront pages that exist regardless of catalog
// content.
var staticPages = []string{
	"/",
	"/about-us",
	"/contact",
}

// categoryPages mirror the storefront navigation. The paths are search
// landing pages, so they stay in the sitemap even when a category is
// momentarily empty.
var categoryPages = []string{
	"chocolate-cakes",
	"vanilla-flavor",
	"redVelvet-flavor-cakes",
	"fruit-cakes",
	"pineapple-flavor-cakes",
	"butterscotch-flavor-cakes",
	"cartoon-theme-cakes",
	"superhero-theme-cakes",
	"cricket-theme-cakes",
	"nature-theme-cakes",
	"Cupcakes",
	"brownies",
	"cookies",
	"pastries",
	"muffins",
	"donuts",
	"kids-birthday",
	"adult-birthday",
	"milestone-birthday",
	"surprise-birthday",
	"birthday-combos",
	"birthday-Specials",
	"FirstAnniversary-cakes",
	"anniversary-cakes",
	"friendship-day-cakes",
	"baby-shower-cakes",
	"farewell-cakes",
	"congratulations-cakes",
	"photo-cakes",
	"name-cakes",
	"designer-cakes",
	"fondant-cakes",
	"custom-flavor-cakes",
}

// SitemapHandler serves the search engine sitemap.
type SitemapHandler struct {
	cakes   ports.CakeRepository
	baseURL string
}

// NewSitemapHandler creates a new SitemapHandler.
func NewSitemapHandler(cakes ports.CakeRepository, baseURL string) *SitemapHandler {
	return &SitemapHandler{cakes: cakes, baseURL: baseURL}
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// GetSitemap godoc
// @Summary Sitemap
// @Description XML sitemap covering static pages, category pages and every cake product page.
// @Tags sitemap
// @Produce xml
// @Success 200 {string} string "urlset XML"
// @Router /sitemap.xml [get]
func (h *SitemapHandler) GetSitemap(c *fiber.Ctx) error {
	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}

	for _, page := range staticPages {
		set.URLs = append(set.URLs, urlEntry{
			Loc:        h.baseURL + page,
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}
	for _, category := range categoryPages {
		set.URLs = append(set.URLs, urlEntry{
			Loc:        h.baseURL + "/cakes/" + category,
			ChangeFreq: "weekly",
			Priority:   "0.7",
		})
	}

	slugs, err := h.cakes.ListSlugs(c.Context())
	if err != nil {
		logger.Get().Error("Failed to build sitemap",
			zap.Error(err))
		return c.Status(http.StatusInternalServerError).SendString("Error generating sitemap")
	}
	for _, entry := range slugs {
		set.URLs = append(set.URLs, urlEntry{
			Loc:        h.baseURL + "/cake/" + entry.Slug,
			LastMod:    entry.UpdatedAt.Format(time.RFC3339),
			ChangeFreq: "weekly",
			Priority:   "0.9",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return c.Status(http.StatusInternalServerError).SendString("Error generating sitemap")
	}

	c.Set(fiber.HeaderContentType, "application/xml")
	return c.SendString(xml.Header + string(out))
}
