package jwt

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Service verifies access tokens issued by the HRIS auth service and turns
// their claims into a Principal.
type Service interface {
	JWTAuth() *jwtauth.JWTAuth
	Principal(token jwt.Token) (user.Principal, error)
	// IssueAccessToken signs a token with the shared secret. Used by
	// operational tooling and tests; production tokens come from auth.
	IssueAccessToken(p user.Principal, ttl time.Duration) (string, error)
}

type JWTService struct {
	tokenAuth *jwtauth.JWTAuth
}

func NewJWTService(secretKey string) Service {
	return &JWTService{
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) IssueAccessToken(p user.Principal, ttl time.Duration) (string, error) {
	claims := map[string]interface{}{
		"user_id":    p.UserID,
		"company_id": p.CompanyID,
		"role":       string(p.Role),
		"type":       "access",
		"exp":        time.Now().Add(ttl).Unix(),
	}
	if p.EmployeeID != "" {
		claims["employee_id"] = p.EmployeeID
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, err
}

// Principal reads the caller identity. Access tokens must carry a company;
// employee_id is absent for owners without an employee record.
func (j *JWTService) Principal(token jwt.Token) (user.Principal, error) {
	if token == nil {
		return user.Principal{}, user.ErrInvalidToken
	}

	if tokenType := stringClaim(token, "type"); tokenType != "access" {
		return user.Principal{}, fmt.Errorf("%w: token type %q", user.ErrInvalidToken, tokenType)
	}

	p := user.Principal{
		UserID:     stringClaim(token, "user_id"),
		CompanyID:  stringClaim(token, "company_id"),
		EmployeeID: stringClaim(token, "employee_id"),
		Role:       user.Role(stringClaim(token, "role")),
	}
	if p.CompanyID == "" {
		return user.Principal{}, user.ErrCompanyIDRequired
	}
	return p, nil
}

func stringClaim(token jwt.Token, name string) string {
	v, ok := token.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
