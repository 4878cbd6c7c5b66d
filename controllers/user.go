package controllers

import (
	"net/http"

	"cloud-kitchen/models"
	"cloud-kitchen/services"

	"github.com/sirupsen/logrus"
)

// UserController handles user-related requests
type UserController struct {
	Users *services.UserService
	Log   *logrus.Entry
}

// NewUserController creates a new UserController
func NewUserController(users *services.UserService, log *logrus.Entry) *UserController {
	return &UserController{Users: users, Log: log}
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()

	user, err := uc.Users.Register(ctx, req)
	if err != nil {
		respondError(w, r, uc.Log, err)
		return
	}

	message := "User registered successfully. You can now log in."
	if !user.IsVerified {
		message = "User registered successfully. Please check your email to verify your account."
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"message": message, "user": user})
}

// VerifyEmail handles email verification
func (uc *UserController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	if err := uc.Users.Verify(ctx, r.URL.Query().Get("token")); err != nil {
		respondError(w, r, uc.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Email verified successfully. You can now log in."})
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &creds) {
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()

	token, err := uc.Users.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		respondError(w, r, uc.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil || !sess.SignedIn() {
		http.Error(w, "Could not parse user from context", http.StatusUnauthorized)
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()

	user, err := uc.Users.Profile(ctx, sess.UserID)
	if err != nil {
		respondError(w, r, uc.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateProfile replaces the delivery details kept on file.
func (uc *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil || !sess.SignedIn() {
		http.Error(w, "Could not parse user from context", http.StatusUnauthorized)
		return
	}
	var profile models.Profile
	if !decodeJSON(w, r, &profile) {
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()

	user, err := uc.Users.UpdateProfile(ctx, sess.UserID, profile)
	if err != nil {
		respondError(w, r, uc.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
