package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/galaxydo/waitlist-backend/internal/config"
	"github.com/galaxydo/waitlist-backend/internal/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// AuthHandler handles the social sign-in boundary. Identity itself lives with
// the OAuth provider; this handler only exchanges the authorization code,
// fetches the caller's profile and mints an API session token.
type AuthHandler struct {
	twitterCfg config.TwitterConfig
	jwtCfg     config.JWTConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(twitterCfg config.TwitterConfig, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{twitterCfg: twitterCfg, jwtCfg: jwtCfg}
}

// TwitterAuthRequest represents the request body for Twitter authentication
type TwitterAuthRequest struct {
	Code         string `json:"code" binding:"required"`
	RedirectURI  string `json:"redirect_uri" binding:"required"`
	CodeVerifier string `json:"code_verifier"`
}

// twitterUserInfo is the profile payload from the Twitter v2 users/me endpoint
type twitterUserInfo struct {
	Data struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"data"`
}

// TwitterAuth exchanges a Twitter OAuth authorization code for an API session token
func (h *AuthHandler) TwitterAuth(c *gin.Context) {
	var req TwitterAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.twitterCfg.ClientID == "" || h.twitterCfg.ClientSecret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Twitter OAuth is not configured"})
		return
	}

	oauth2Config := &oauth2.Config{
		ClientID:     h.twitterCfg.ClientID,
		ClientSecret: h.twitterCfg.ClientSecret,
		RedirectURL:  req.RedirectURI,
		Scopes:       []string{"tweet.read", "users.read"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   h.twitterCfg.AuthURL,
			TokenURL:  h.twitterCfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	var opts []oauth2.AuthCodeOption
	if req.CodeVerifier != "" {
		opts = append(opts, oauth2.SetAuthURLParam("code_verifier", req.CodeVerifier))
	}

	token, err := oauth2Config.Exchange(c.Request.Context(), req.Code, opts...)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to exchange token: %v", err)})
		return
	}

	userInfo, err := h.getUserInfoFromTwitter(c.Request.Context(), oauth2Config, token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to get user info: %v", err)})
		return
	}

	expiration := time.Duration(h.jwtCfg.Expiration) * time.Hour
	sessionToken, err := utils.GenerateToken(userInfo.Data.ID, "", userInfo.Data.Username, expiration)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": sessionToken,
		"token_type":   "Bearer",
		"expires_in":   int64(expiration.Seconds()),
		"handle":       "@" + userInfo.Data.Username,
	})
}

// getUserInfoFromTwitter fetches the authenticated user's profile
func (h *AuthHandler) getUserInfoFromTwitter(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*twitterUserInfo, error) {
	client := cfg.Client(ctx, token)

	resp, err := client.Get(h.twitterCfg.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to request user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("user info request returned %d: %s", resp.StatusCode, string(body))
	}

	var userInfo twitterUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if userInfo.Data.ID == "" {
		return nil, fmt.Errorf("user info response missing id")
	}

	return &userInfo, nil
}
