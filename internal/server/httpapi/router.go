package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/spendkeeper/internal/logging"
)

// NewRouter wires the public and bearer-protected routes.
func NewRouter(us userService, es expenseService, logger logging.Logger) chi.Router {
	h := &handlers{users: us, expenses: es, now: time.Now}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", h.Health)
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(us.Authenticate))

		r.Get("/me", h.Me)
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.SubmitExpenses)
			r.Delete("/", h.DeleteExpense)
			r.Get("/export", h.ExportExpenses)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not_found", "route not found")
	})

	return r
}
