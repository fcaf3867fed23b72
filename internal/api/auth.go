package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pharmapos/m/domain"
	"pharmapos/m/internal/checkout"
	"pharmapos/m/internal/store"
)

type ctxKey string

const (
	ctxUserID   ctxKey = "userID"
	ctxFullName ctxKey = "fullName"
	ctxRole     ctxKey = "role"
)

type authClaims struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(user domain.User) (string, error) {
	now := h.now()
	claims := authClaims{
		UserID:   user.ID,
		FullName: user.FullName,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok || claims.UserID == "" {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxFullName, claims.FullName)
		ctx = context.WithValue(ctx, ctxRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) requireRole(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current, _ := r.Context().Value(ctxRole).(string)
			if current == "" {
				respondError(w, http.StatusUnauthorized, "missing role")
				return
			}
			for _, allowedRole := range allowed {
				if current == allowedRole {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

// identityFromContext returns the cashier set by authMiddleware; the zero
// Identity when the request is unauthenticated.
func identityFromContext(ctx context.Context) checkout.Identity {
	id, _ := ctx.Value(ctxUserID).(string)
	name, _ := ctx.Value(ctxFullName).(string)
	return checkout.Identity{UserID: id, FullName: name}
}

// Auth Handlers

// registerRequest is the public sign-up form. It can only create cashiers;
// admins are bootstrapped from config or created by another admin.
type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=cashier"`
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin cashier"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, ok := h.createAccount(w, r, req.Email, req.Password, req.FullName, domain.RoleCashier)
	if !ok {
		return
	}
	token, err := h.generateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// createUser lets an admin add staff with either role.
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := h.decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, ok := h.createAccount(w, r, req.Email, req.Password, req.FullName, req.Role)
	if !ok {
		return
	}
	h.log.Info("user created",
		zap.String("user_id", user.ID),
		zap.String("role", user.Role),
		zap.String("created_by", identityFromContext(r.Context()).UserID))
	respondJSON(w, http.StatusCreated, user)
}

// createAccount hashes the password and stores the user, writing the error
// response itself when it fails. The returned user has no password.
func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request, email, password, fullName, role string) (domain.User, bool) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return domain.User{}, false
	}

	user, err := h.store.CreateUser(r.Context(), domain.User{
		Email:    email,
		FullName: strings.TrimSpace(fullName),
		Password: string(hashed),
		Role:     role,
	})
	if errors.Is(err, store.ErrEmailTaken) {
		respondError(w, http.StatusConflict, "email already exists")
		return domain.User{}, false
	}
	if err != nil {
		h.log.Error("create user failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to complete registration")
		return domain.User{}, false
	}
	user.Password = ""
	return user, true
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	user.Password = ""
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.UserByID(r.Context(), identityFromContext(r.Context()).UserID)
	if errors.Is(err, domain.ErrNotFound) {
		respondError(w, http.StatusUnauthorized, "user no longer exists")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	user.Password = ""
	respondJSON(w, http.StatusOK, user)
}

// logout discards the cashier's cart. Tokens are stateless and simply expire.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Drop(identityFromContext(r.Context()).UserID)
	w.WriteHeader(http.StatusNoContent)
}
