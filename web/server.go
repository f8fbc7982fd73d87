// ABOUTME: Read-only web dashboard with embedded templates
// ABOUTME: Serves stats, entity tables, and the pipeline graph SVG
package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/calegray/revdeck/db"
	"github.com/calegray/revdeck/models"
	"github.com/calegray/revdeck/viz"
)

//go:embed templates/*
var templatesFS embed.FS

const listPageSize = 100

type Server struct {
	store     *db.Store
	templates *template.Template
	generator *viz.GraphGenerator
}

func NewServer(store *db.Store) (*Server, error) {
	funcMap := template.FuncMap{
		"money": func(v *float64) string {
			if v == nil {
				return "—"
			}
			return fmt.Sprintf("$%.0f", *v)
		},
		"moneyK": func(v float64) string {
			return fmt.Sprintf("$%.0fK", v/1000)
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		store:     store,
		templates: tmpl,
		generator: viz.NewGraphGenerator(store.Stats),
	}, nil
}

func (s *Server) Start(port int) error {
	http.HandleFunc("/", s.handleDashboard)
	http.HandleFunc("/contacts", s.handleContacts)
	http.HandleFunc("/companies", s.handleCompanies)
	http.HandleFunc("/deals", s.handleDeals)
	http.HandleFunc("/pipeline.svg", s.handlePipelineSVG)

	addr := fmt.Sprintf(":%d", port)
	log.Info("starting web dashboard", "addr", "http://localhost"+addr)
	return http.ListenAndServe(addr, nil)
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Error("template render failed", "template", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	stats, err := s.store.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type stageRow struct {
		Stage string
		Count int
		Value float64
	}
	var stages []stageRow
	for _, stage := range models.StageOrder {
		st := stats.DealsByStage[stage]
		stages = append(stages, stageRow{Stage: stage, Count: st.Count, Value: st.Value})
	}

	s.renderTemplate(w, "layout.html", map[string]interface{}{
		"Title":           "Dashboard",
		"ContentTemplate": "dashboard-content",
		"Stats":           stats,
		"Stages":          stages,
	})
}

func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	page, err := s.store.ListContacts(r.Context(), models.ListFilter{
		Search:   r.URL.Query().Get("q"),
		Status:   r.URL.Query().Get("status"),
		PageSize: listPageSize,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type contactView struct {
		Name        string
		Email       string
		Title       string
		CompanyName string
		Status      string
	}
	var views []contactView
	for i := range page.Data {
		c := &page.Data[i]
		views = append(views, contactView{
			Name:        c.DisplayName(),
			Email:       c.Email,
			Title:       c.Title,
			CompanyName: c.CompanyName,
			Status:      c.Status,
		})
	}

	s.renderTemplate(w, "layout.html", map[string]interface{}{
		"Title":           "Contacts",
		"ContentTemplate": "contacts-content",
		"Contacts":        views,
		"Total":           page.Pagination.Total,
	})
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	page, err := s.store.ListCompanies(r.Context(), models.ListFilter{
		Search:   r.URL.Query().Get("q"),
		Status:   r.URL.Query().Get("status"),
		PageSize: listPageSize,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "layout.html", map[string]interface{}{
		"Title":           "Companies",
		"ContentTemplate": "companies-content",
		"Companies":       page.Data,
		"Total":           page.Pagination.Total,
	})
}

func (s *Server) handleDeals(w http.ResponseWriter, r *http.Request) {
	page, err := s.store.ListDeals(r.Context(), models.ListFilter{
		Search:   r.URL.Query().Get("q"),
		Status:   r.URL.Query().Get("status"),
		Stage:    r.URL.Query().Get("stage"),
		PageSize: listPageSize,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "layout.html", map[string]interface{}{
		"Title":           "Deals",
		"ContentTemplate": "deals-content",
		"Deals":           page.Data,
		"Total":           page.Pagination.Total,
	})
}

func (s *Server) handlePipelineSVG(w http.ResponseWriter, r *http.Request) {
	svg, err := s.generator.PipelineSVG(r.Context())
	if err != nil {
		log.Error("pipeline graph failed", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}
