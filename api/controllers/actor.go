package controllers

import (
	"net/http"

	"github.com/cupshup/ops-backend/api/middleware"
	"github.com/cupshup/ops-backend/pkg/auth"
	pkgerrors "github.com/cupshup/ops-backend/pkg/errors"
)

func actorFrom(r *http.Request) (auth.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return auth.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return actor, nil
}
