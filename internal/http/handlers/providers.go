package handlers

import "net/http"

// Providers lists the registered catalog with live rolling statistics.
func (a *App) Providers(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": a.Registry.All()})
}
