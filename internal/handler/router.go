package handler

import (
	"net/http"
	"time"

	"flowforge/internal/svc"

	"github.com/zeromicro/go-zero/rest"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		Routes(serverCtx),
		rest.WithJwt(serverCtx.Config.Auth.AccessSecret),
		rest.WithPrefix("/api/"),
		rest.WithTimeout(30000*time.Millisecond),
	)
}

func Routes(serverCtx *svc.ServiceContext) []rest.Route {
	return []rest.Route{
		// --- Onboarding Routes ---
		{
			Method:  http.MethodGet,
			Path:    "/onboarding/status",
			Handler: OnboardingStatusHandler(serverCtx),
		},
		{
			Method:  http.MethodPost,
			Path:    "/onboarding/run",
			Handler: OnboardingRunHandler(serverCtx),
		},
		{
			Method:  http.MethodPost,
			Path:    "/onboarding/retry",
			Handler: OnboardingRetryHandler(serverCtx),
		},
		{
			Method:  http.MethodDelete,
			Path:    "/onboarding/session",
			Handler: OnboardingLogoutHandler(serverCtx),
		},
		// --- Chain Routes ---
		{
			Method:  http.MethodGet,
			Path:    "/chains",
			Handler: ChainListHandler(serverCtx),
		},
	}
}
