package auth

import (
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
)

// ExternalIdentity is what an external identity provider vouches for.
type ExternalIdentity struct {
	Username    string
	Email       string
	DisplayName string
	FirstName   string
	LastName    string
	IsAdmin     bool
}

// CasdoorVerifier validates tokens issued by a Casdoor instance.
type CasdoorVerifier struct{}

func NewCasdoorVerifier(cfg config.AuthConfig) *CasdoorVerifier {
	casdoorsdk.InitConfig(
		cfg.CasdoorEndpoint,
		cfg.CasdoorClientID,
		cfg.CasdoorClientSecret,
		cfg.CasdoorCertificate,
		cfg.CasdoorOrganization,
		cfg.CasdoorApplication,
	)
	return &CasdoorVerifier{}
}

func (v *CasdoorVerifier) Verify(token string) (*ExternalIdentity, error) {
	claims, err := casdoorsdk.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.User.Name == "" {
		return nil, ErrInvalidToken
	}
	return &ExternalIdentity{
		Username:    claims.User.Name,
		Email:       claims.User.Email,
		DisplayName: claims.User.DisplayName,
		FirstName:   claims.User.FirstName,
		LastName:    claims.User.LastName,
		IsAdmin:     claims.User.IsAdmin,
	}, nil
}
