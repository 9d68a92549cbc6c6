package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	Code        string `json:"code" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"display_name"`
}

type inviteRequest struct {
	ExpiresInHours int `json:"expires_in_hours" binding:"gte=0"`
}

// handleSignup redeems an invite code. The API token is only shown here.
func (s *Server) handleSignup(c *gin.Context) {
	var req signupRequest
	if !s.bind(c, &req) {
		return
	}
	profile, token, err := s.store.RedeemInviteCode(c.Request.Context(), req.Code, req.Email, req.DisplayName)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.logFor(c).Info("profile created", "profile_id", profile.ID)
	respondSuccess(c, http.StatusCreated, gin.H{"profile": profile, "token": token})
}

func (s *Server) handleMe(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"profile": currentProfile(c)})
}

// handleCreateInviteCode issues a signup code, optionally expiring.
func (s *Server) handleCreateInviteCode(c *gin.Context) {
	var req inviteRequest
	if c.Request.ContentLength != 0 && !s.bind(c, &req) {
		return
	}
	var expires *time.Time
	if req.ExpiresInHours > 0 {
		at := time.Now().UTC().Add(time.Duration(req.ExpiresInHours) * time.Hour)
		expires = &at
	}

	creator := currentProfile(c).ID
	code, err := s.store.CreateInviteCode(c.Request.Context(), &creator, expires)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"invite_code": code})
}

func (s *Server) handleListInviteCodes(c *gin.Context) {
	codes, err := s.store.ListInviteCodes(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"invite_codes": codes})
}
