// Package fipetest provides an in-process reference-price service for tests.
package fipetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
)

// Variant is a priced year-variant.
type Variant struct {
	Name  string
	Code  string
	Value string
}

// Model is a model with its year-variants. Codes are numeric like upstream.
type Model struct {
	Name  string
	Code  int
	Years []Variant
}

// Brand is a brand with its models.
type Brand struct {
	Name   string
	Code   string
	Models []Model
}

// Server serves a fixed catalogue under /carros/marcas.
type Server struct {
	*httptest.Server
	Requests atomic.Int64
	catalog  []Brand
}

type entry struct {
	Name string `json:"nome"`
	Code any    `json:"codigo"`
}

// NewServer starts a Server for the catalogue. Callers must Close it.
func NewServer(catalog []Brand) *Server {
	s := &Server{catalog: catalog}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /carros/marcas", s.brands)
	mux.HandleFunc("GET /carros/marcas/{brand}/modelos", s.models)
	mux.HandleFunc("GET /carros/marcas/{brand}/modelos/{model}/anos", s.years)
	mux.HandleFunc("GET /carros/marcas/{brand}/modelos/{model}/anos/{year}", s.price)

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	return s
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) findBrand(code string) (Brand, bool) {
	for _, b := range s.catalog {
		if b.Code == code {
			return b, true
		}
	}
	return Brand{}, false
}

func (s *Server) findModel(r *http.Request) (Model, bool) {
	b, ok := s.findBrand(r.PathValue("brand"))
	if !ok {
		return Model{}, false
	}
	code, err := strconv.Atoi(r.PathValue("model"))
	if err != nil {
		return Model{}, false
	}
	for _, m := range b.Models {
		if m.Code == code {
			return m, true
		}
	}
	return Model{}, false
}

func (s *Server) brands(w http.ResponseWriter, r *http.Request) {
	out := []entry{}
	for _, b := range s.catalog {
		out = append(out, entry{Name: b.Name, Code: b.Code})
	}
	writeJSON(w, out)
}

func (s *Server) models(w http.ResponseWriter, r *http.Request) {
	b, ok := s.findBrand(r.PathValue("brand"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	out := struct {
		Models []entry `json:"modelos"`
		Years  []entry `json:"anos"`
	}{Models: []entry{}, Years: []entry{}}
	for _, m := range b.Models {
		out.Models = append(out.Models, entry{Name: m.Name, Code: m.Code})
	}
	writeJSON(w, out)
}

func (s *Server) years(w http.ResponseWriter, r *http.Request) {
	m, ok := s.findModel(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	out := []entry{}
	for _, y := range m.Years {
		out = append(out, entry{Name: y.Name, Code: y.Code})
	}
	writeJSON(w, out)
}

func (s *Server) price(w http.ResponseWriter, r *http.Request) {
	m, ok := s.findModel(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	for _, y := range m.Years {
		if y.Code == r.PathValue("year") {
			writeJSON(w, map[string]any{
				"Valor":      y.Value,
				"Modelo":     m.Name,
				"CodigoFipe": "000000-0",
			})
			return
		}
	}
	http.NotFound(w, r)
}
