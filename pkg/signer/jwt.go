package signer

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/coachpo/coinbase-advanced/errs"
)

const (
	jwtIssuer   = "coinbase-cloud"
	jwtAudience = "retail_rest_api_proxy"
	restTTL     = 60 * time.Second
	wsTTL       = 120 * time.Second
)

// Claims is the claim set of a cloud API key token.
type Claims struct {
	jwt.RegisteredClaims
	URI string `json:"uri,omitempty"`
}

// JWT implements the cloud API key scheme. The private key is parsed on
// every call so rotated keys never linger in memory.
type JWT struct {
	keyName    string
	privateKey string
	host       string

	// Clock overrides time.Now.
	Clock func() time.Time
	// Rand overrides the nonce entropy source.
	Rand io.Reader
}

// NewJWT returns a cloud signer. privateKeyPEM holds an EC private key in
// SEC1 or PKCS#8 PEM form.
func NewJWT(keyName, privateKeyPEM, host string) *JWT {
	return &JWT{
		keyName:    strings.TrimSpace(keyName),
		privateKey: privateKeyPEM,
		host:       strings.TrimSpace(host),
		Clock:      time.Now,
		Rand:       nil,
	}
}

// Sign implements Signer. body is not part of the token.
func (s *JWT) Sign(method, path string, _ []byte) (http.Header, error) {
	token, err := s.build(restTTL, []string{jwtAudience}, method+" "+s.host+path)
	if err != nil {
		return nil, err
	}
	h := make(http.Header, 1)
	h.Set(HeaderAuth, "Bearer "+token)
	return h, nil
}

// Token implements TokenSource with the websocket claim set: no audience or
// uri and a 120s lifetime.
func (s *JWT) Token() (string, error) {
	return s.build(wsTTL, nil, "")
}

func (s *JWT) build(ttl time.Duration, audience []string, uri string) (string, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(s.privateKey))
	if err != nil {
		return "", errs.New("signer", errs.CodeConfig,
			errs.WithMessage("parse ec private key"), errs.WithCause(err))
	}
	nonce, err := newNonce(s.Rand)
	if err != nil {
		return "", errs.New("signer", errs.CodeConfig, errs.WithMessage("generate nonce"), errs.WithCause(err))
	}

	now := time.Now()
	if s.Clock != nil {
		now = s.Clock()
	}
	now = now.Truncate(time.Second)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.keyName,
			Issuer:    jwtIssuer,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		URI: uri,
	}
	if len(audience) > 0 {
		claims.Audience = jwt.ClaimStrings(audience)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = s.keyName
	token.Header["nonce"] = nonce

	signed, err := token.SignedString(key)
	if err != nil {
		return "", errs.New("signer", errs.CodeConfig, errs.WithMessage("sign jwt"), errs.WithCause(err))
	}
	return signed, nil
}
