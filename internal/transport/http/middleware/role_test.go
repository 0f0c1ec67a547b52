package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dealer-transfers-api/internal/domain"
	jwtinfra "github.com/dealer-transfers-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
)

func TestRequireRole_NoActorInContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	RequireRole(domain.RoleAdmin)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		allowed []string
		want    int
	}{
		{"admin only admits admin", domain.RoleAdmin, []string{domain.RoleAdmin}, http.StatusOK},
		{"admin only rejects sales", domain.RoleSales, []string{domain.RoleAdmin}, http.StatusForbidden},
		{"vehicle writers admit manager", domain.RoleManager, []string{domain.RoleAdmin, domain.RoleManager}, http.StatusOK},
		{"vehicle writers reject sales", domain.RoleSales, []string{domain.RoleAdmin, domain.RoleManager}, http.StatusForbidden},
		{"no roles admits nobody", domain.RoleAdmin, nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithClaims(context.Background(), &jwtinfra.Claims{UserID: "u1", Role: tt.role})
			req := httptest.NewRequest(http.MethodPost, "/v1/vehicles", nil).WithContext(ctx)
			rr := httptest.NewRecorder()

			RequireRole(tt.allowed...)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusForbidden {
				assert.JSONEq(t, `{"error":"role `+tt.role+` may not perform this action"}`, rr.Body.String())
			}
		})
	}
}
