package main

import (
	"net/http"

	"github.com/dcmc-apps/taskmanager/internal/api"
)

// setupRouter builds the HTTP handler from the application's services.
func (app *application) setupRouter() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:      app.logger,
		Resolver:    app.resolver,
		WorkGroups:  app.workGroups,
		Memberships: app.memberships,
		Tasks:       app.tasks,
		Projects:    app.projects,
		Catalog:     app.catalog,
	})
}
