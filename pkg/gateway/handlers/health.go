package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kioskvoice/ordergate/pkg/gateway/config"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type ReadyHandler struct {
	Config config.Config
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK         bool     `json:"ok"`
		STTEnabled bool     `json:"stt_enabled"`
		TTSEnabled bool     `json:"tts_enabled"`
		Catalog    string   `json:"catalog"`
		Issues     []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)

	if h.Config.SttFinalizeTimeout <= 0 {
		issues = append(issues, "stt finalize timeout must be > 0")
	}
	if h.Config.TTSChunkSize <= 0 {
		issues = append(issues, "tts chunk size must be > 0")
	}
	if h.Config.OutboundQueueSize <= 0 {
		issues = append(issues, "outbound queue size must be > 0")
	}
	if h.Config.WriteTimeout <= 0 {
		issues = append(issues, "write timeout must be > 0")
	}
	if (h.Config.FeatureSTT || h.Config.FeatureTTS) && h.Config.CartesiaAPIKey == "" {
		issues = append(issues, "speech features enabled without cartesia api key")
	}

	catalog := "memory"
	if h.Config.DatabaseURL != "" {
		catalog = "postgres"
	}

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(readyResp{
		OK:         ok,
		STTEnabled: h.Config.FeatureSTT,
		TTSEnabled: h.Config.FeatureTTS,
		Catalog:    catalog,
		Issues:     issues,
	})
}
