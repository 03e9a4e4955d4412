package api

import (
	"log/slog"
	"net/http"

	apiMiddleware "github.com/dcmc-apps/taskmanager/internal/api/middleware"
	"github.com/dcmc-apps/taskmanager/internal/service"
	"github.com/dcmc-apps/taskmanager/internal/service/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig carries the dependencies of the HTTP surface.
type RouterConfig struct {
	Logger      *slog.Logger
	Resolver    auth.IdentityResolver
	WorkGroups  service.WorkGroupService
	Memberships service.MembershipService
	Tasks       service.TaskService
	Projects    service.ProjectService
	Catalog     service.CatalogService
}

// NewRouter builds the chi router. Everything under /api requires a bearer
// token; /health does not.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.Trace(log))
	r.Use(middleware.Recoverer)

	workGroups := NewWorkGroupHandler(cfg.WorkGroups, cfg.Memberships, log)
	tasks := NewTaskHandler(cfg.Tasks, log)
	projects := NewProjectHandler(cfg.Projects, log)
	catalog := NewCatalogHandler(cfg.Catalog, log)
	authMiddleware := apiMiddleware.NewAuthMiddleware(cfg.Resolver)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/work-groups", func(r chi.Router) {
			r.Post("/", workGroups.CreateWorkGroup)
			r.Get("/mine", workGroups.ListMine)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", workGroups.GetWorkGroup)
				r.Put("/", workGroups.UpdateWorkGroup)
				r.Delete("/", workGroups.DeleteWorkGroup)
				r.Get("/detail", workGroups.GetWorkGroupDetail)
				r.Post("/members/{userID}", workGroups.AddMember)
				r.Delete("/members/{userID}", workGroups.RemoveMember)
				r.Put("/promote-to-moderator/{userID}", workGroups.PromoteMember)
				r.Put("/demote-moderator/{userID}", workGroups.DemoteModerator)
				r.Put("/transfer-ownership/{userID}", workGroups.TransferOwnership)
				r.Delete("/leave", workGroups.LeaveGroup)
				r.Get("/tasks", tasks.ListTasks)
				r.Get("/projects", projects.ListProjects)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", tasks.CreateTask)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", tasks.GetTask)
				r.Put("/", tasks.UpdateTask)
				r.Patch("/", tasks.PatchTask)
				r.Delete("/", tasks.DeleteTask)
				r.Post("/archive", tasks.ArchiveTask)
				r.Delete("/archived", tasks.DeleteArchivedTask)
			})
		})

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", projects.CreateProject)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", projects.GetProject)
				r.Put("/", projects.UpdateProject)
				r.Delete("/", projects.DeleteProject)
				r.Put("/members", projects.UpdateMembers)
				r.Post("/tasks", projects.AssignTasks)
				r.Get("/tasks", projects.ListTasks)
				r.Delete("/tasks/{taskID}", projects.RemoveTask)
				r.Get("/task-summaries", projects.ListTaskSummaries)
			})
		})

		r.Route("/task-statuses", func(r chi.Router) {
			r.Get("/", catalog.ListStatuses)
			r.Post("/", catalog.CreateStatus)
			r.Get("/visible", catalog.ListVisibleStatuses)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", catalog.GetStatus)
				r.Put("/", catalog.UpdateStatus)
				r.Patch("/", catalog.PatchStatus)
				r.Delete("/", catalog.DeleteStatus)
				r.Post("/hide", catalog.HideStatus)
				r.Post("/unhide", catalog.UnhideStatus)
			})
		})

		r.Route("/task-priorities", func(r chi.Router) {
			r.Get("/", catalog.ListPriorities)
			r.Post("/", catalog.CreatePriority)
			r.Get("/visible", catalog.ListVisiblePriorities)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", catalog.GetPriority)
				r.Put("/", catalog.UpdatePriority)
				r.Patch("/", catalog.PatchPriority)
				r.Delete("/", catalog.DeletePriority)
				r.Post("/hide", catalog.HidePriority)
				r.Post("/unhide", catalog.UnhidePriority)
			})
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
