package docs

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openapiYAML []byte

// Handler отдаёт описание API: /openapi.yaml как есть и /openapi.json, сконвертированный один раз
type Handler struct {
	yaml []byte
	json []byte
}

func NewHandler() (*Handler, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(openapiYAML, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse openapi.yaml: %w", err)
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode openapi as json: %w", err)
	}
	return &Handler{yaml: openapiYAML, json: js}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/openapi.yaml":
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(h.yaml)
	case "/openapi.json", "/":
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(h.json)
	default:
		http.NotFound(w, r)
	}
}
