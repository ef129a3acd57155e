package rentall

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oamouyal-jpg/rentall/auth"
	"github.com/oamouyal-jpg/rentall/db"
	"github.com/oamouyal-jpg/rentall/domain"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatar_url"`
	Location  *string `json:"location"`
	Bio       *string `json:"bio"`
}

// register creates an account and signs the new user straight in.
func (server *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		server.internalError(c, fmt.Errorf("hashing password : %w", err))
		return
	}
	id, err := uuid.NewV7()
	if err != nil {
		server.internalError(c, fmt.Errorf("generating user id : %w", err))
		return
	}
	user := &domain.User{
		ID:           id,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := server.Repo.CreateUser(user); err != nil {
		if errors.Is(err, db.ErrDuplicateEmail) {
			detail(c, http.StatusBadRequest, "Email already registered")
			return
		}
		server.internalError(c, err)
		return
	}
	token, err := server.Tokens.Issue(user.ID)
	if err != nil {
		server.internalError(c, fmt.Errorf("issuing token : %w", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// login checks the credentials and returns a fresh token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (server *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := server.Repo.GetUserByEmail(req.Email)
	if err != nil {
		detail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		detail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token, err := server.Tokens.Issue(user.ID)
	if err != nil {
		server.internalError(c, fmt.Errorf("issuing token : %w", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (server *Server) me(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	c.JSON(http.StatusOK, user)
}

// updateProfile applies the supplied profile fields. Absent fields are left
// untouched.
func (server *Server) updateProfile(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	updated, err := server.Repo.UpdateProfile(user.ID, domain.ProfileUpdate{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
		Location:  req.Location,
		Bio:       req.Bio,
	})
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
