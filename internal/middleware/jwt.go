package middleware

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"sunu_bank/internal/models"
	"sunu_bank/internal/policy"
)

var secret = []byte(getJWTSecret())

func getJWTSecret() string {
	if val := os.Getenv("JWT_SECRET"); val != "" {
		return val
	}
	return "supersecret" // fallback
}

// TokenTTL is how long issued tokens stay valid.
func TokenTTL() time.Duration {
	if raw := os.Getenv("JWT_TTL_HOURS"); raw != "" {
		if h, err := strconv.Atoi(raw); err == nil && h > 0 {
			return time.Duration(h) * time.Hour
		}
	}
	return 72 * time.Hour
}

// Denylist answers whether a token's jti has been revoked by a logout.
type Denylist interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// GenerateToken issues a signed bearer token for the user. The jti claim
// identifies this single token so logout can revoke it without touching the
// user's other sessions.
func GenerateToken(user *models.User) (token string, jti string, expiresIn int64, err error) {
	jti = uuid.NewString()
	ttl := TokenTTL()

	claims := jwt.MapClaims{
		"user_id":     user.ID.String(),
		"role":        user.Role,
		"permissions": []string(user.Permissions),
		"jti":         jti,
		"exp":         time.Now().Add(ttl).Unix(),
	}
	if user.Client != nil {
		claims["client_id"] = user.Client.ID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", "", 0, err
	}
	return signed, jti, int64(ttl.Seconds()), nil
}

func ValidateToken(tokenStr string) (*jwt.Token, error) {
	return jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
}

// RequireAuth ensures a valid, non-revoked JWT is present and stores the
// resulting policy.Actor in the context for downstream handlers.
func RequireAuth(denylist Denylist) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, denylist) {
			return
		}
		c.Next()
	}
}

// RequireRole layers a role check on top of RequireAuth.
func RequireRole(denylist Denylist, requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, denylist) {
			return
		}
		actor := CurrentActor(c)
		if actor.Role != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false, "message": "Permissions insuffisantes",
			})
			return
		}
		c.Next()
	}
}

// authenticate validates the bearer token and populates the context. It
// aborts the request and returns false on any failure.
func authenticate(c *gin.Context, denylist Denylist) bool {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false, "message": "En-tête Authorization manquant ou invalide",
		})
		return false
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	token, err := ValidateToken(tokenString)
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false, "message": "Jeton invalide ou expiré",
		})
		return false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false, "message": "Jeton invalide ou expiré",
		})
		return false
	}

	actor, jti, exp, ok := actorFromClaims(claims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false, "message": "Jeton invalide ou expiré",
		})
		return false
	}

	if denylist != nil {
		revoked, err := denylist.IsRevoked(c.Request.Context(), jti)
		if err != nil || revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false, "message": "Jeton révoqué",
			})
			return false
		}
	}

	c.Set("actor", actor)
	c.Set("jti", jti)
	c.Set("exp", exp)
	return true
}

// CurrentActor returns the authenticated caller set by RequireAuth. The zero
// Actor carries no role or permissions, so policy checks deny it.
func CurrentActor(c *gin.Context) policy.Actor {
	if v, ok := c.Get("actor"); ok {
		if actor, ok := v.(policy.Actor); ok {
			return actor
		}
	}
	return policy.Actor{}
}

// CurrentJTI returns the jti claim of the presented token.
func CurrentJTI(c *gin.Context) (string, time.Time) {
	jti := c.GetString("jti")
	var exp time.Time
	if v, ok := c.Get("exp"); ok {
		if t, ok := v.(time.Time); ok {
			exp = t
		}
	}
	return jti, exp
}

func actorFromClaims(claims jwt.MapClaims) (policy.Actor, string, time.Time, bool) {
	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return policy.Actor{}, "", time.Time{}, false
	}
	role, _ := claims["role"].(string)
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return policy.Actor{}, "", time.Time{}, false
	}

	var permissions []string
	if raw, ok := claims["permissions"].([]interface{}); ok {
		for _, p := range raw {
			if s, ok := p.(string); ok {
				permissions = append(permissions, s)
			}
		}
	}

	actor := policy.Actor{UserID: userID, Role: role, Permissions: permissions}
	if rawClient, ok := claims["client_id"].(string); ok {
		if clientID, err := uuid.Parse(rawClient); err == nil {
			actor.ClientID = &clientID
		}
	}

	var exp time.Time
	if rawExp, ok := claims["exp"].(float64); ok {
		exp = time.Unix(int64(rawExp), 0)
	}
	return actor, jti, exp, true
}
