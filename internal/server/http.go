package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/zeusync/arbor/internal/core/generator"
	"github.com/zeusync/arbor/internal/core/observability/log"
	"github.com/zeusync/arbor/internal/core/preset"
)

const maxRequestBody = 1 << 20

// GenerateRequest selects a preset by name or carries one inline.
// A missing seed means a random one.
type GenerateRequest struct {
	Preset      string          `json:"preset,omitempty"`
	Inline      json.RawMessage `json:"inline,omitempty"`
	Seed        *uint64         `json:"seed,omitempty"`
	Count       int             `json:"count,omitempty"`
	IncludeMesh bool            `json:"include_mesh,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ForestResponse lists the generated trees in seed order.
type ForestResponse struct {
	Preset string              `json:"preset"`
	Trees  []*generator.Result `json:"trees"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"presets": s.presets.Len(),
	})
}

func (s *Server) handleListPresets(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.presets.List())
}

func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	p, err := s.presets.Get(r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// handlePresetMesh serves GET /presets/{name}/mesh?seed=&format=obj|bin.
func (s *Server) handlePresetMesh(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	p, err := s.presets.Get(name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	seed := generator.RandomSeed()
	if raw := r.URL.Query().Get("seed"); raw != "" {
		if seed, err = strconv.ParseUint(raw, 10, 64); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: seed: %w", ErrInvalidRequest, err))
			return
		}
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "obj"
	}
	if format != "obj" && format != "bin" {
		s.writeError(w, r, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format))
		return
	}

	res, err := s.generator.Generate(r.Context(), p, seed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("X-Arbor-Seed", strconv.FormatUint(res.Seed, 10))
	w.Header().Set("X-Arbor-Hash", strconv.FormatUint(res.Hash, 16))

	var buf bytes.Buffer
	switch format {
	case "obj":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		err = res.Mesh.WriteOBJ(&buf, fmt.Sprintf("%s_%d", name, res.Seed))
	case "bin":
		w.Header().Set("Content-Type", "application/octet-stream")
		var data []byte
		if data, err = res.Mesh.Serialize(); err == nil {
			buf.Write(data)
		}
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.generate(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleForest(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.forest(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// generate is shared by the HTTP and WebSocket front ends.
func (s *Server) generate(ctx context.Context, req GenerateRequest) (*generator.Result, error) {
	p, err := s.resolvePreset(req)
	if err != nil {
		return nil, err
	}
	seed := generator.RandomSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}
	res, err := s.generator.Generate(ctx, p, seed)
	if err != nil {
		return nil, err
	}
	if !req.IncludeMesh {
		res.Mesh = nil
	}
	return res, nil
}

func (s *Server) forest(ctx context.Context, req GenerateRequest) (*ForestResponse, error) {
	if req.Count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", ErrInvalidRequest)
	}
	if req.Count > s.config.MaxForestSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrForestTooLarge, req.Count, s.config.MaxForestSize)
	}
	p, err := s.resolvePreset(req)
	if err != nil {
		return nil, err
	}
	base := generator.RandomSeed()
	if req.Seed != nil {
		base = *req.Seed
	}
	trees, err := s.generator.Forest(ctx, p, generator.Seeds(base, req.Count))
	if err != nil {
		return nil, err
	}
	if !req.IncludeMesh {
		for _, t := range trees {
			t.Mesh = nil
		}
	}
	return &ForestResponse{Preset: p.Name, Trees: trees}, nil
}

func (s *Server) resolvePreset(req GenerateRequest) (*preset.Preset, error) {
	switch {
	case len(req.Inline) > 0 && req.Preset != "":
		return nil, fmt.Errorf("%w: preset and inline are exclusive", ErrInvalidRequest)
	case len(req.Inline) > 0:
		p, err := preset.LoadJSON(bytes.NewReader(req.Inline))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		if p.Name == "" {
			p.Name = "inline"
		}
		return p, nil
	case req.Preset != "":
		return s.presets.Get(req.Preset)
	default:
		return nil, fmt.Errorf("%w: preset or inline is required", ErrInvalidRequest)
	}
}

func decodeRequest(r *http.Request) (GenerateRequest, error) {
	var req GenerateRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return req, nil
}

// writeJSON encodes v before committing status, so an unencodable value
// turns into a 500 instead of a truncated body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", log.Error(err))
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(errorResponse{Error: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("Failed to write response", log.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := s.logger.WithContext(r.Context())
	if status >= http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
		logger.Error("Request failed", log.String("path", r.URL.Path), log.Error(err))
	} else {
		logger.Debug("Request rejected", log.String("path", r.URL.Path), log.Int("status", status), log.Error(err))
	}
	s.writeJSON(w, status, errorResponse{Error: strings.TrimSpace(err.Error())})
}
