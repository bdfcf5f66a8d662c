// Copyright (c) 2026, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package jwtassertion

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wso2/app-deployment-platform/app-manager-service/config"
	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

// TokenClaims are the claims the service reads off an assertion token. Sub is
// the owning user's identifier and scopes every application operation.
type TokenClaims struct {
	Sub      string           `json:"sub"`
	Scope    string           `json:"scope"`
	Exp      int64            `json:"exp"`
	Issuer   string           `json:"iss"`
	Audience jwt.ClaimStrings `json:"aud"`
	jwt.RegisteredClaims
}

type tokenClaimsCtxKey struct{}

type Middleware func(http.Handler) http.Handler

var assertionTokenClaimsKey tokenClaimsCtxKey

// JWKS represents a JSON Web Key Set
type JWKS struct {
	Keys []JSONWebKey `json:"keys"`
}

// JSONWebKey represents a single key in a JWKS
type JSONWebKey struct {
	Kty string   `json:"kty"`
	Kid string   `json:"kid"`
	Use string   `json:"use"`
	N   string   `json:"n"`
	E   string   `json:"e"`
	Alg string   `json:"alg"`
	X5c []string `json:"x5c,omitempty"`
}

var (
	jwksCache      *JWKS
	jwksCacheMutex sync.RWMutex
	jwksCacheTime  time.Time
	jwksCacheTTL   = 1 * time.Hour
)

// JWTAuthMiddleware validates the bearer token from the given header and
// stores its claims on the request context
func JWTAuthMiddleware(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get(header)
			if tokenString == "" {
				utils.WriteErrorResponse(w, http.StatusUnauthorized, fmt.Sprintf("missing header: %s", header))
				return
			}
			tokenString = strings.Replace(tokenString, "Bearer ", "", 1)

			claims, err := validateJWTWithJWKS(tokenString)
			if err != nil {
				slog.Error("JWT validation failed", "error", err)
				utils.WriteErrorResponse(w, http.StatusUnauthorized, "invalid jwt")
				return
			}
			if claims.Sub == "" {
				utils.WriteErrorResponse(w, http.StatusUnauthorized, "token has no subject")
				return
			}
			ctx := context.WithValue(r.Context(), assertionTokenClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTokenClaims returns the validated claims, or nil outside an
// authenticated request
func GetTokenClaims(ctx context.Context) *TokenClaims {
	claims, ok := ctx.Value(assertionTokenClaimsKey).(*TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// GetUserID returns the authenticated user's identifier
func GetUserID(ctx context.Context) string {
	claims := GetTokenClaims(ctx)
	if claims == nil {
		return ""
	}
	return claims.Sub
}

// validateJWTWithJWKS validates a JWT token using JWKS and validates issuer and audience
func validateJWTWithJWKS(tokenString string) (*TokenClaims, error) {
	cfg := config.GetConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	var claims *TokenClaims

	if cfg.KeyManagerConfigurations.JWKSUrl != "" {
		token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}

			kid, ok := token.Header["kid"].(string)
			if !ok {
				return nil, fmt.Errorf("kid not found in token header")
			}

			jwks, err := fetchJWKS(cfg.KeyManagerConfigurations.JWKSUrl)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
			}

			for _, key := range jwks.Keys {
				if key.Kid == kid {
					return convertJWKToPublicKey(&key)
				}
			}
			return nil, fmt.Errorf("unable to find key with kid: %s", kid)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}
		if !token.Valid {
			return nil, fmt.Errorf("token is not valid")
		}
		validatedClaims, ok := token.Claims.(*TokenClaims)
		if !ok {
			return nil, fmt.Errorf("failed to extract claims")
		}
		claims = validatedClaims
	} else {
		// No JWKS URL configured, skip signature validation
		extractedClaims, err := extractClaimsFromJWT(tokenString)
		if err != nil {
			return nil, fmt.Errorf("failed to extract claims: %w", err)
		}
		claims = extractedClaims
	}

	if err := validateIssuer(claims.Issuer, cfg.KeyManagerConfigurations.Issuer); err != nil {
		return nil, err
	}
	if err := validateAudience(claims.Audience, cfg.KeyManagerConfigurations.Audience); err != nil {
		return nil, err
	}
	return claims, nil
}

// validateIssuer validates the issuer claim against allowed issuers
func validateIssuer(issuer string, allowedIssuers []string) error {
	if len(allowedIssuers) == 0 {
		return fmt.Errorf("no allowed issuers configured")
	}
	trimmedIssuer := strings.TrimSpace(issuer)
	for _, allowed := range allowedIssuers {
		if strings.TrimSpace(allowed) == trimmedIssuer {
			return nil
		}
	}
	return fmt.Errorf("invalid issuer: expected one of %v, got %s", allowedIssuers, issuer)
}

// validateAudience validates the audience claim against allowed audiences
func validateAudience(audiences jwt.ClaimStrings, allowedAudiences []string) error {
	if len(allowedAudiences) == 0 {
		return fmt.Errorf("no allowed audiences configured")
	}
	allowedMap := make(map[string]struct{})
	for _, allowed := range allowedAudiences {
		allowedMap[strings.TrimSpace(allowed)] = struct{}{}
	}
	for _, aud := range audiences {
		if _, ok := allowedMap[strings.TrimSpace(aud)]; ok {
			return nil
		}
	}
	return fmt.Errorf("invalid audience: expected one of %v, got %v", allowedAudiences, audiences)
}

// extractClaimsFromJWT decodes the payload without verifying the signature.
// Only used when no JWKS URL is configured (local development).
func extractClaimsFromJWT(tokenString string) (*TokenClaims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid JWT format")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	var claims TokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("failed to unmarshal claims: %w", err)
	}
	if claims.Exp != 0 && time.Now().Unix() > claims.Exp {
		return nil, fmt.Errorf("token is expired")
	}
	return &claims, nil
}

// fetchJWKS retrieves the key set, serving from a one-hour cache
func fetchJWKS(jwksURL string) (*JWKS, error) {
	jwksCacheMutex.RLock()
	if jwksCache != nil && time.Since(jwksCacheTime) < jwksCacheTTL {
		cached := jwksCache
		jwksCacheMutex.RUnlock()
		return cached, nil
	}
	jwksCacheMutex.RUnlock()

	jwksCacheMutex.Lock()
	defer jwksCacheMutex.Unlock()

	// another goroutine may have refreshed while we waited for the lock
	if jwksCache != nil && time.Since(jwksCacheTime) < jwksCacheTTL {
		return jwksCache, nil
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	jwksCache = &jwks
	jwksCacheTime = time.Now()
	return &jwks, nil
}

// convertJWKToPublicKey converts an RSA JWK into an rsa.PublicKey
func convertJWKToPublicKey(key *JSONWebKey) (*rsa.PublicKey, error) {
	if key.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type: %s", key.Kty)
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(key.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(key.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}

	return &rsa.PublicKey{N: n, E: e}, nil
}
