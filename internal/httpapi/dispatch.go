package httpapi

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/redirectdispatch/dispatcher/internal/dispatch"
)

// handleDispatchOrFavicon implements spec.md §4.2 step 1: any request
// whose path or raw URL contains the substring "favicon" (not just the
// exact /favicon.ico route — browsers also probe paths like
// /assets/favicon.png) short-circuits to 204 before it can consume a
// slot in the visitor's cursor.
func (a *App) handleDispatchOrFavicon(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.URL.Path, "favicon") || strings.Contains(r.URL.RequestURI(), "favicon") {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	a.handleDispatch(w, r)
}

// handleDispatch is the hot path: every request not matched by a more
// specific route lands here. It never returns a 5xx — any failure
// redirects to dispatch.EmergencyFallbackURL per spec.md §4.2.
func (a *App) handleDispatch(w http.ResponseWriter, r *http.Request) {
	req := dispatch.Request{
		ForwardedFor: r.Header.Get("X-Forwarded-For"),
		RemoteAddr:   r.RemoteAddr,
		Language:     r.URL.Query().Get("language"),
		UTMSource:    r.URL.Query().Get("utm_source"),
		UTMMedium:    r.URL.Query().Get("utm_medium"),
		UTMCampaign:  r.URL.Query().Get("utm_campaign"),
		UTMTerm:      r.URL.Query().Get("utm_term"),
		UTMContent:   r.URL.Query().Get("utm_content"),
		FBClid:       r.URL.Query().Get("fbclid"),
		GClid:        r.URL.Query().Get("gclid"),
		Now:          time.Now(),
	}
	ip := req.ClientIP()

	result, err := a.Engine.Dispatch(r.Context(), req)
	if err != nil {
		a.Logger.Warn("dispatch failed, using emergency fallback",
			zap.String("ip", ip), zap.Error(err))
		http.Redirect(w, r, dispatch.EmergencyFallbackURL, http.StatusFound)
		return
	}

	a.Recorder.RecordClick(result.LinkID)
	a.Recorder.RecordReplayMemo(ip, result.FinalURL)

	http.Redirect(w, r, result.FinalURL, http.StatusFound)
}
