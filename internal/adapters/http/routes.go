package web

import (
	"net/http"

	"tuition/internal/adapters/export"
	"tuition/internal/adapters/http/middleware"
)

// registerRoutes wires every dashboard route. Grade pages take the remaining
// single-segment paths, so literal routes must stay one segment deep or carry
// a literal second segment.
func registerRoutes(mux *http.ServeMux) {
	auth := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }
	class := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(middleware.RequireClass(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(middleware.RequireAdmin(h)) }

	// Public
	mux.HandleFunc("/login", handleLogin)
	mux.HandleFunc("/healthz", handleHealth)

	// Signed in
	mux.Handle("/logout", auth(handleLogout))
	mux.Handle("/classes", auth(handleClasses))
	mux.Handle("/settings", auth(handleSettings))

	// Class selected
	mux.Handle("/{$}", class(handleDashboard))
	mux.Handle("/{segment}", class(handleGradePage))
	mux.Handle("/{segment}/student", class(handleStudentForm))
	mux.Handle("/student", class(handleStudentForm))
	mux.Handle("/message", class(handleMessage))
	mux.Handle("/history", class(handleHistory))
	mux.Handle("/history/export.pdf", class(handleHistoryExport(export.FormatPDF)))
	mux.Handle("/history/export.xlsx", class(handleHistoryExport(export.FormatXLSX)))
	mux.Handle("/history/email", class(handleHistoryEmail))

	// JSON API
	mux.Handle("/api/week", class(handleAPIWeek))
	mux.Handle("/api/paid", class(handleAPIPaid))
	mux.Handle("/api/remove", class(handleAPIRemove))
	mux.Handle("/api/message", class(handleAPIMessage))
	mux.Handle("/api/students/search", class(handleAPIStudentSearch))
	mux.Handle("/api/students/enable", class(handleAPIStudentEnable))
	mux.Handle("/api/route", auth(handleAPIRoute))

	// Admin
	mux.Handle("/admin/status", admin(handleAdminStatus))
	mux.Handle("/admin/outbox/{id}/{action}", admin(handleAdminOutbox))
}

// handleHealth handles GET /healthz for load balancers.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
