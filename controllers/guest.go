package controllers

import (
	"net/http"

	"cloud-kitchen/middleware"
	"cloud-kitchen/services"

	"github.com/sirupsen/logrus"
)

// GuestController issues and ends guest sessions
type GuestController struct {
	Sessions *services.SessionService
	Log      *logrus.Entry
}

func NewGuestController(sessions *services.SessionService, log *logrus.Entry) *GuestController {
	return &GuestController{Sessions: sessions, Log: log}
}

// StartSession returns a new session id to send back in X-Guest-Session.
func (gc *GuestController) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	sess, err := gc.Sessions.Start(ctx)
	if err != nil {
		respondError(w, r, gc.Log, err)
		return
	}
	respondJSON(w, http.StatusCreated, sess)
}

// EndSession deletes the caller's guest session and its cart.
func (gc *GuestController) EndSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GuestFromContext(r.Context())
	if !ok {
		http.Error(w, "X-Guest-Session header required", http.StatusBadRequest)
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()

	if err := gc.Sessions.End(ctx, sess.ID); err != nil {
		respondError(w, r, gc.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
