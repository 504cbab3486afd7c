package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cupshup/ops-backend/api/controllers"
	"github.com/cupshup/ops-backend/api/middleware"
	"github.com/cupshup/ops-backend/internal/activities"
	"github.com/cupshup/ops-backend/internal/dashboard"
	"github.com/cupshup/ops-backend/internal/evidence"
	"github.com/cupshup/ops-backend/internal/export"
	"github.com/cupshup/ops-backend/internal/mappings"
	"github.com/cupshup/ops-backend/internal/tasks"
	"github.com/cupshup/ops-backend/internal/vendors"
	"github.com/cupshup/ops-backend/pkg/config"
	"github.com/cupshup/ops-backend/pkg/enums"
	"github.com/cupshup/ops-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	readiness []controllers.Dependency,
	evidenceService evidence.Service,
	activitiesService activities.Service,
	vendorsService vendors.Service,
	mappingsService mappings.Service,
	tasksService tasks.Service,
	exportService export.Service,
	dashboardService dashboard.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	staff := middleware.RequireRole(logg, enums.RoleCupShup)
	vendor := middleware.RequireRole(logg, enums.RoleVendor)
	staffOrClient := middleware.RequireRole(logg, enums.RoleCupShup, enums.RoleClient)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.With(vendor).Post("/evidence", controllers.SubmitEvidence(evidenceService, cfg.Evidence.MaxUploadBytes(), logg))

		r.Route("/activities", func(r chi.Router) {
			r.Get("/", controllers.ActivityList(activitiesService, logg))
			r.With(staff).Post("/", controllers.ActivityCreate(activitiesService, logg))
			r.Route("/{activityId}", func(r chi.Router) {
				r.Get("/", controllers.ActivityDetail(activitiesService, logg))
				r.With(staffOrClient).Get("/mappings", controllers.MappingList(mappingsService, logg))
				r.With(staff).Post("/mappings", controllers.MappingCreate(mappingsService, logg))
			})
		})

		r.Route("/vendors", func(r chi.Router) {
			r.Use(staff)
			r.Get("/", controllers.VendorList(vendorsService, logg))
			r.Post("/", controllers.VendorCreate(vendorsService, logg))
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", controllers.TaskList(tasksService, logg))
			r.Get("/export", controllers.TaskExport(exportService, logg))
			r.With(vendor).Post("/{taskId}/start", controllers.TaskStartWork(tasksService, logg))
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/counts", controllers.DashboardCounts(dashboardService, logg))
			r.With(staffOrClient).Get("/mapped-activities", controllers.DashboardMappedActivities(dashboardService, logg))
		})
	})

	return r
}
