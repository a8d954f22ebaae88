package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/redirectdispatch/dispatcher/internal/analytics"
)

// handleProcess is the manual-refresh endpoint: it invalidates the
// fronting cache's local copies so the next dispatch on this process
// re-reads whatever the refresher most recently published, without
// waiting out the freshness window. It does not run the refresher
// itself, and its body is {"status":"ok"} with no ranking data.
func (a *App) handleProcess(w http.ResponseWriter, r *http.Request) {
	a.Front.Invalidate()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statsResponse is spec.md §4.5's {gam, clicks, traffic} shape.
type statsResponse struct {
	GAM     []map[string]interface{} `json:"gam"`
	Clicks  []map[string]interface{} `json:"clicks"`
	Traffic []map[string]interface{} `json:"traffic"`
}

// handleStats implements GET /api/stats: today's per-domain analytics
// aggregation alongside the click ledger's top counters.
func (a *App) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	today := time.Now().UTC().Format("2006-01-02")
	rows, err := a.Analytics.Aggregate(ctx, analytics.Query{
		Start:       today,
		End:         today,
		Domains:     a.Registry.Hosts(),
		CustomKey:   analytics.CustomKeyPostID,
		GroupByCols: []string{"domain", "custom_key", "custom_value"},
	})
	if err != nil {
		a.Logger.Warn("stats aggregate failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "analytics store unavailable", a.Config.IsDevelopment(), err)
		return
	}

	clicks, err := a.Clicks.Top(ctx, 50)
	if err != nil {
		a.Logger.Warn("stats top clicks failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "click store unavailable", a.Config.IsDevelopment(), err)
		return
	}

	gam := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		gam = append(gam, map[string]interface{}{
			"domain":      row.Domain,
			"customKey":   row.CustomKey,
			"customValue": row.CustomValue,
			"impressions": row.Impressions,
			"clicks":      row.Clicks,
			"revenue":     row.Revenue,
			"ecpm":        row.ECPM,
		})
	}

	clicksOut := make([]map[string]interface{}, 0, len(clicks))
	for _, c := range clicks {
		clicksOut = append(clicksOut, map[string]interface{}{
			"linkId":    c.LinkID,
			"count":     c.Count,
			"createdAt": c.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, statsResponse{
		GAM:     gam,
		Clicks:  clicksOut,
		Traffic: []map[string]interface{}{},
	})
}

// handleDistinct implements GET /api/distinct/{field}, validated
// against analytics.DistinctFields' allow-list (spec.md §4.5).
func (a *App) handleDistinct(w http.ResponseWriter, r *http.Request) {
	field := mux.Vars(r)["field"]
	if !analytics.DistinctFields[field] {
		fields := make([]string, 0, len(analytics.DistinctFields))
		for f := range analytics.DistinctFields {
			fields = append(fields, f)
		}
		writeValidationError(w, "unknown distinct field", fields)
		return
	}

	values, err := a.Analytics.Distinct(r.Context(), field)
	if err != nil {
		a.Logger.Warn("distinct query failed", zap.String("field", field), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "analytics store unavailable", a.Config.IsDevelopment(), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"field": field, "values": values})
}

// handleLinks implements GET /api/links: a paginated view of the link
// store, grounded on app/query/controller/pagination.go's parse shape.
func (a *App) handleLinks(w http.ResponseWriter, r *http.Request) {
	spec, err := parseLinkPageSpec(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), a.Config.IsDevelopment(), err)
		return
	}

	records, err := a.Links.List(r.Context(), spec.Domain, spec.Status, spec.Cursor, spec.Limit)
	if err != nil {
		a.Logger.Warn("list links failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "link store unavailable", a.Config.IsDevelopment(), err)
		return
	}

	var nextCursor string
	if len(records) == spec.Limit {
		nextCursor = records[len(records)-1].ID
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"links":      records,
		"nextCursor": nextCursor,
		"limit":      spec.Limit,
	})
}
