package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"dormstay/internal/model"
	"dormstay/internal/mw"
	"dormstay/internal/parse"
	"dormstay/internal/store"
)

const invalidCredentials = "invalid student code or password"

type signupRequest struct {
	StudentCode     string `json:"student_code"`
	NationalCode    string `json:"national_code"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// validate normalises the request and returns every field error at once.
func (r *signupRequest) validate() map[string]string {
	errs := map[string]string{}
	var err error
	if r.StudentCode, err = parse.StudentCode(r.StudentCode); err != nil {
		errs["student_code"] = err.Error()
	}
	if r.NationalCode, err = parse.NationalCode(r.NationalCode); err != nil {
		errs["national_code"] = err.Error()
	}
	if r.FirstName, err = parse.Name(r.FirstName, "first name"); err != nil {
		errs["first_name"] = err.Error()
	}
	if r.LastName, err = parse.Name(r.LastName, "last name"); err != nil {
		errs["last_name"] = err.Error()
	}
	if err = parse.Password(r.Password, r.ConfirmPassword); err != nil {
		errs["password"] = err.Error()
	}
	return errs
}

// Signup registers a new student account.
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	fieldErrs := req.validate()
	if _, bad := fieldErrs["student_code"]; !bad {
		if _, bad := fieldErrs["national_code"]; !bad {
			studentTaken, nationalTaken, err := h.store.CodesTaken(c.Request.Context(), req.StudentCode, req.NationalCode)
			if err != nil {
				respondError(c, err)
				return
			}
			if studentTaken {
				fieldErrs["student_code"] = "student code is already registered"
			}
			if nationalTaken {
				fieldErrs["national_code"] = "national code is already registered"
			}
		}
	}
	if len(fieldErrs) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid signup", "fields": fieldErrs})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err)
		return
	}
	student := model.Student{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		NationalCode: req.NationalCode,
		StudentCode:  req.StudentCode,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := h.store.CreateStudent(c.Request.Context(), &student); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

type loginRequest struct {
	StudentCode string `json:"student_code" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// Login exchanges a student code and password for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	ctx := c.Request.Context()
	student, err := h.store.GetStudentByCode(ctx, parse.Digits(req.StudentCode))
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": invalidCredentials})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)) != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": invalidCredentials})
		return
	}
	if !student.IsActive {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is disabled"})
		return
	}

	sess, err := h.store.CreateSession(ctx, student.ID, h.now(), h.sessionTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": sess.Token, "expires_at": sess.ExpiresAt, "student": student})
}

// Logout revokes the current session.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.store.DeleteSession(c.Request.Context(), mw.SessionToken(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
