package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dgallion1/wikiscan/internal/doctree"
	"github.com/dgallion1/wikiscan/internal/offsets"
	"github.com/dgallion1/wikiscan/internal/wikiparser"
)

// handleParse turns raw pages into section chunks.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	res, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleOffsets builds the annotated text from an already parsed chunk list.
func (s *Server) handleOffsets(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, "failed to read body: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	chunks, err := offsets.ParseChunks(data)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Builder.Build(chunks))
}

// handleAnnotate runs parse and offset building in one call.
func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	res, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":     res.Title,
		"annotated": s.deps.Builder.Build(res.Chunks),
		"warnings":  res.Warnings,
	})
}

// handleTSV parses raw pages and renders them as WebAnno TSV.
func (s *Server) handleTSV(w http.ResponseWriter, r *http.Request) {
	res, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	out, err := s.deps.Converter.Convert(r.Context(), res.Title, res.Chunks)
	if err != nil {
		jsonError(w, "tsv: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if r.URL.Query().Get("format") == "raw" {
		w.Header().Set("Content-Type", "text/tab-separated-values; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Title+".tsv"))
		io.WriteString(w, out.TSV)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// parseBody decodes a {title, pages} body and parses it, writing the error
// response itself when it reports false.
func (s *Server) parseBody(w http.ResponseWriter, r *http.Request) (*wikiparser.Result, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	var src doctree.Source
	if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	res, err := s.deps.Parser.Parse(src)
	if err != nil {
		writeParseError(w, err)
		return nil, false
	}
	return res, true
}

func writeParseError(w http.ResponseWriter, err error) {
	var fe *wikiparser.FormatError
	switch {
	case errors.As(err, &fe):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"error": err.Error(),
			"page":  fe.Page,
			"info":  fe.Info,
		})
	case errors.Is(err, wikiparser.ErrEmptyInput):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}
