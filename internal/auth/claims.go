package auth

import "github.com/golang-jwt/jwt/v5"

const (
	SourceJWT        = "JWT"
	SourceServiceKey = "SERVICE_KEY"

	RoleAuthenticated = "authenticated"
	RoleService       = "service_role"
)

// UserClaims is what handlers know about the caller. Admin status is never part
// of it; that comes from the pilots table.
type UserClaims interface {
	UserID() string
	Email() string
	Role() string
	Source() string
	IsServiceRole() bool
}

// TokenClaims is the payload of an access token issued by the auth provider.
// Fields other than sub, email and role are ignored.
type TokenClaims struct {
	jwt.RegisteredClaims
	EmailValue string                 `json:"email,omitempty"`
	RoleValue  string                 `json:"role,omitempty"`
	AppMeta    map[string]interface{} `json:"app_metadata,omitempty"`
}

type JWTClaims struct {
	UserUUID   string
	EmailValue string
	RoleValue  string
}

func (c *JWTClaims) UserID() string      { return c.UserUUID }
func (c *JWTClaims) Email() string       { return c.EmailValue }
func (c *JWTClaims) Role() string        { return c.RoleValue }
func (c *JWTClaims) Source() string      { return SourceJWT }
func (c *JWTClaims) IsServiceRole() bool { return false }

// ServiceClaims identifies a caller holding the service role key.
type ServiceClaims struct{}

func (c *ServiceClaims) UserID() string      { return "" }
func (c *ServiceClaims) Email() string       { return "" }
func (c *ServiceClaims) Role() string        { return RoleService }
func (c *ServiceClaims) Source() string      { return SourceServiceKey }
func (c *ServiceClaims) IsServiceRole() bool { return true }
