package main

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"goomer/internal/auth"
	"goomer/internal/domain/users"
	"goomer/internal/validation"
)

type SignupPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"required,max=100"`
}

type LoginPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

// UserProfile is the public view of an account.
type UserProfile struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type SignupResponse struct {
	Message      string      `json:"message" example:"User created successfully"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int         `json:"expiresIn" example:"3600"`
	User         UserProfile `json:"user"`
}

type LoginUser struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type LoginResponse struct {
	Message      string    `json:"message" example:"Authentication successful"`
	IDToken      string    `json:"idToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int       `json:"expiresIn" example:"3600"`
	User         LoginUser `json:"user"`
}

type TokenResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn" example:"3600"`
}

type VerifyPayload struct {
	IDToken string `json:"idToken"`
}

type VerifyResponse struct {
	UID      string `json:"uid"`
	Email    string `json:"email"`
	Verified bool   `json:"verified" example:"true"`
}

type RefreshPayload struct {
	RefreshToken string `json:"refreshToken"`
}

type ValidateResponse struct {
	Valid bool          `json:"valid" example:"true"`
	User  auth.Identity `json:"user"`
}

func (app *application) expiresIn() int {
	return int(app.config.auth.token.accessTokenExp.Seconds())
}

func (app *application) roleFor(email string) string {
	if slices.Contains(app.config.auth.adminEmails, strings.ToLower(email)) {
		return auth.RoleAdmin
	}
	return auth.RoleUser
}

// issueTokens mints a token pair for user and stores the refresh token,
// replacing any previous one.
func (app *application) issueTokens(r *http.Request, user *users.User) (string, string, error) {
	access, refresh, err := app.authenticator.GenerateTokens(auth.Identity{
		UID:   user.ID,
		Email: user.Email,
		Role:  user.Role,
	})
	if err != nil {
		return "", "", err
	}
	if err := app.store.Users.SaveRefreshToken(r.Context(), user.ID, refresh); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// signupHandler godoc
//
//	@Summary		Create an account
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SignupPayload	true	"Account"
//	@Success		201		{object}	SignupResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse	"Email already registered"
//	@Failure		500		{object}	ErrorResponse
//	@Router			/auth/signup [post]
func (app *application) signupHandler(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if err := readJSON(w, r, &payload, defaultMaxBodyBytes); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Email = strings.TrimSpace(payload.Email)

	if err := Validate.Struct(payload); err != nil {
		app.errorResponse(w, r, http.StatusBadRequest, ErrorResponse{
			Error:   "Missing required fields",
			Details: validation.Fields(err),
		}, err)
		return
	}

	user := &users.User{
		Name:  payload.Name,
		Email: payload.Email,
		Role:  app.roleFor(payload.Email),
	}
	if err := user.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, "creating user", err)
		return
	}

	if err := app.store.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			app.errorResponse(w, r, http.StatusConflict, ErrorResponse{
				Error:   "Error creating user",
				Details: err.Error(),
				Code:    "auth/email-already-exists",
			}, err)
			return
		}
		app.internalServerError(w, r, "creating user", err)
		return
	}

	access, refresh, err := app.issueTokens(r, user)
	if err != nil {
		app.internalServerError(w, r, "creating user", err)
		return
	}

	app.logger.Infow("user created", "uid", user.ID)

	resp := SignupResponse{
		Message:      "User created successfully",
		Token:        access,
		RefreshToken: refresh,
		ExpiresIn:    app.expiresIn(),
		User:         UserProfile{UID: user.ID, Email: user.Email, Name: user.Name},
	}
	if err := app.jsonResponse(w, http.StatusCreated, resp); err != nil {
		app.internalServerError(w, r, "creating user", err)
	}
}

// loginHandler godoc
//
//	@Summary		Log in with email and password
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		LoginPayload	true	"Credentials"
//	@Success		200		{object}	LoginResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/auth/login [post]
func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := readJSON(w, r, &payload, defaultMaxBodyBytes); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	failed := func(err error) {
		app.errorResponse(w, r, http.StatusUnauthorized, ErrorResponse{
			Error:   "Authentication failed",
			Details: "invalid email or password",
		}, err)
	}

	if err := Validate.Struct(payload); err != nil {
		failed(err)
		return
	}

	user, err := app.store.Users.GetByEmail(r.Context(), payload.Email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			failed(err)
			return
		}
		app.internalServerError(w, r, "logging in", err)
		return
	}

	if err := user.Password.Compare(payload.Password); err != nil {
		failed(err)
		return
	}

	access, refresh, err := app.issueTokens(r, user)
	if err != nil {
		app.internalServerError(w, r, "logging in", err)
		return
	}

	resp := LoginResponse{
		Message:      "Authentication successful",
		IDToken:      access,
		RefreshToken: refresh,
		ExpiresIn:    app.expiresIn(),
		User:         LoginUser{UID: user.ID, Email: user.Email, DisplayName: user.Name},
	}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, "logging in", err)
	}
}

// getUserHandler godoc
//
//	@Summary	Profile of the caller
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	map[string]UserProfile
//	@Failure	401	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Security	ApiKeyAuth
//	@Router		/auth/user [get]
func (app *application) getUserHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	user, err := app.store.Users.GetByID(r.Context(), identity.UID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			app.errorResponse(w, r, http.StatusNotFound, ErrorResponse{Error: "User not found"}, err)
			return
		}
		app.internalServerError(w, r, "getting user profile", err)
		return
	}

	resp := map[string]UserProfile{
		"user": {UID: user.ID, Email: user.Email, Name: user.Name},
	}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, "getting user profile", err)
	}
}

// verifyTokenHandler godoc
//
//	@Summary	Verify an ID token
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		VerifyPayload	true	"Token"
//	@Success	200		{object}	VerifyResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	401		{object}	ErrorResponse
//	@Router		/auth/verify [post]
func (app *application) verifyTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload VerifyPayload
	if err := readJSON(w, r, &payload, defaultMaxBodyBytes); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.IDToken == "" {
		app.errorResponse(w, r, http.StatusBadRequest, ErrorResponse{Error: "ID token is required"}, errors.New("idToken is empty"))
		return
	}

	identity, err := app.authenticator.VerifyAccessToken(payload.IDToken)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, tokenErrorBody(err), err)
		return
	}

	resp := VerifyResponse{UID: identity.UID, Email: identity.Email, Verified: true}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, "verifying token", err)
	}
}

// refreshTokenHandler godoc
//
//	@Summary		Exchange a refresh token
//	@Description	Refresh tokens are single use: the returned pair replaces the old one.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RefreshPayload	true	"Refresh token"
//	@Success		200		{object}	TokenResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/auth/refresh [post]
func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload RefreshPayload
	if err := readJSON(w, r, &payload, defaultMaxBodyBytes); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.RefreshToken == "" {
		app.errorResponse(w, r, http.StatusBadRequest, ErrorResponse{Error: "Refresh token is required"}, errors.New("refreshToken is empty"))
		return
	}

	failed := func(err error) {
		app.errorResponse(w, r, http.StatusUnauthorized, ErrorResponse{
			Error:   "Failed to refresh token",
			Details: err.Error(),
			Code:    "auth/refresh-failed",
		}, err)
	}

	identity, err := app.authenticator.VerifyRefreshToken(payload.RefreshToken)
	if err != nil {
		failed(err)
		return
	}

	ctx := r.Context()
	user, err := app.store.Users.GetByID(ctx, identity.UID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			failed(err)
			return
		}
		app.internalServerError(w, r, "refreshing token", err)
		return
	}

	access, refresh, err := app.authenticator.GenerateTokens(auth.Identity{
		UID:   user.ID,
		Email: user.Email,
		Role:  user.Role,
	})
	if err != nil {
		app.internalServerError(w, r, "refreshing token", err)
		return
	}

	// only one caller can swap a given token; the rest see a mismatch
	if err := app.store.Users.RotateRefreshToken(ctx, user.ID, payload.RefreshToken, refresh); err != nil {
		if errors.Is(err, users.ErrTokenMismatch) {
			failed(errors.New("refresh token has been revoked or rotated"))
			return
		}
		app.internalServerError(w, r, "refreshing token", err)
		return
	}

	resp := TokenResponse{IDToken: access, RefreshToken: refresh, ExpiresIn: app.expiresIn()}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, "refreshing token", err)
	}
}

// validateTokenHandler godoc
//
//	@Summary	Check the bearer token
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	ValidateResponse
//	@Failure	401	{object}	ErrorResponse
//	@Security	ApiKeyAuth
//	@Router		/auth/validate [get]
func (app *application) validateTokenHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	resp := ValidateResponse{
		Valid: true,
		User:  auth.Identity{UID: identity.UID, Email: identity.Email},
	}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, "validating token", err)
	}
}

// logoutHandler godoc
//
//	@Summary		Log out
//	@Description	Revokes the caller's refresh token. Access tokens stay valid until they expire.
//	@Tags			auth
//	@Success		204	{string}	string	"No Content"
//	@Failure		401	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/auth/logout [post]
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	err := app.store.Users.DeleteRefreshToken(r.Context(), identity.UID)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		app.internalServerError(w, r, "logging out", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
