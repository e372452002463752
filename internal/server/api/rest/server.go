package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nemanja-m/gopool/internal/server/core"
	"github.com/nemanja-m/gopool/internal/shared/config"
	"github.com/nemanja-m/gopool/internal/shared/logging"
	"github.com/nemanja-m/gopool/pkg/pool"
)

// maxRequestBodyBytes bounds JSON request bodies.
const maxRequestBodyBytes = 4 << 10

type API struct {
	userService core.UserService
	monitor     core.PoolMonitor
	logger      logging.Logger
}

func NewAPI(userService core.UserService, monitor core.PoolMonitor, logger logging.Logger) *API {
	return &API{
		userService: userService,
		monitor:     monitor,
		logger:      logger,
	}
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users", a.createUser)
	mux.HandleFunc("GET /api/users", a.listUsers)
	mux.HandleFunc("GET /api/users/{id}", a.getUser)
	mux.HandleFunc("POST /api/users/{id}/deactivate", a.deactivateUser)
	mux.HandleFunc("GET /api/pool", a.getPoolStats)
	mux.HandleFunc("GET /healthz", a.health)
}

// createUser handles POST /api/users
func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.respondError(w, http.StatusRequestEntityTooLarge, "request body too large", err.Error())
			return
		}
		a.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	user, err := a.userService.CreateUser(r.Context(), req.Name)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	a.respondJSON(w, http.StatusCreated, toUserResponse(user))
}

// getUser handles GET /api/users/{id}
func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := a.parseUserID(w, r)
	if !ok {
		return
	}

	user, err := a.userService.GetUser(r.Context(), id)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	a.respondJSON(w, http.StatusOK, toUserResponse(user))
}

// listUsers handles GET /api/users with filters and pagination
func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	filter, err := parseUserFilter(r.URL.Query())
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid query parameters", err.Error())
		return
	}

	users, total, err := a.userService.GetUsers(r.Context(), filter)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	a.respondJSON(w, http.StatusOK, toListUsersResponse(users, total, filter))
}

// deactivateUser handles POST /api/users/{id}/deactivate
func (a *API) deactivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := a.parseUserID(w, r)
	if !ok {
		return
	}

	user, err := a.userService.DeactivateUser(r.Context(), id)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	a.respondJSON(w, http.StatusOK, toUserResponse(user))
}

// getPoolStats handles GET /api/pool
func (a *API) getPoolStats(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, toPoolStatsResponse(a.monitor.Stats()))
}

// health handles GET /healthz
func (a *API) health(w http.ResponseWriter, r *http.Request) {
	if a.monitor.Closed() {
		a.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "shutting_down"})
		return
	}
	a.respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (a *API) parseUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid user ID", err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func (a *API) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidUser):
		a.respondError(w, http.StatusBadRequest, "validation failed", err.Error())
	case errors.Is(err, core.ErrUserNotFound):
		a.respondError(w, http.StatusNotFound, "user not found", "")
	case errors.Is(err, core.ErrUserExists):
		a.respondError(w, http.StatusConflict, "user already exists", "")
	case errors.Is(err, pool.ErrPoolClosed):
		a.respondError(w, http.StatusServiceUnavailable, "service is shutting down", "")
	default:
		a.logger.Error("Request failed",
			"request_id", RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		a.respondError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

func (a *API) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (a *API) respondError(w http.ResponseWriter, statusCode int, error string, message string) {
	resp := ErrorResponse{
		Error:   error,
		Message: message,
		Code:    statusCode,
	}
	a.respondJSON(w, statusCode, resp)
}

func NewServer(
	cfg config.RESTConfig,
	api *API,
	gatherer prometheus.Gatherer,
	logger logging.Logger,
) *http.Server {
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	handler := ChainMiddleware(
		mux,
		RequestIDMiddleware,
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
	)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
