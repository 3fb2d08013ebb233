package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"soundshelf/internal/apperr"
	"soundshelf/internal/models"
)

const testSecret = "test-secret-0123456789"

func TestCredentialsHashAndVerify(t *testing.T) {
	creds := NewCredentials(MinCost)

	hash, err := creds.Hash("password1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "password1" || !strings.HasPrefix(hash, "$2a$10$") {
		t.Fatalf("unexpected hash %q", hash)
	}
	if !creds.Verify("password1", hash) {
		t.Fatalf("expected password to verify")
	}
	if creds.Verify("password2", hash) {
		t.Fatalf("wrong password must not verify")
	}
	if creds.Verify("password1", "not-a-bcrypt-hash") {
		t.Fatalf("malformed hash must not verify")
	}
}

func TestNewCredentialsRaisesLowCost(t *testing.T) {
	if got := NewCredentials(4).cost; got != MinCost {
		t.Fatalf("cost = %d, want %d", got, MinCost)
	}
	if got := NewCredentials(12).cost; got != 12 {
		t.Fatalf("cost = %d, want 12", got)
	}
}

func newTestTokens(at time.Time) *Tokens {
	tokens := NewTokens(testSecret, time.Hour, "soundshelf")
	tokens.now = func() time.Time { return at }
	return tokens
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := newTestTokens(time.Now())

	token, err := tokens.Issue(7, models.RoleEditor)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	identity, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if identity.UserID != 7 || identity.Role != models.RoleEditor {
		t.Fatalf("unexpected identity %#v", identity)
	}
}

func TestTokensVerifyRejects(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	valid, err := newTestTokens(time.Now()).Issue(1, models.RoleUser)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	expired, err := newTestTokens(issuedAt).Issue(1, models.RoleUser)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	otherSecret, err := NewTokens("another-secret-0123456", time.Hour, "soundshelf").Issue(1, models.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	otherIssuer, err := NewTokens(testSecret, time.Hour, "elsewhere").Issue(1, models.RoleUser)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: 1,
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "soundshelf",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty", token: "", want: ErrMissingToken},
		{name: "garbage", token: "not.a.token", want: ErrInvalidToken},
		{name: "tampered", token: valid[:len(valid)-2] + "xx", want: ErrInvalidToken},
		{name: "expired", token: expired, want: ErrInvalidToken},
		{name: "wrong secret", token: otherSecret, want: ErrInvalidToken},
		{name: "wrong issuer", token: otherIssuer, want: ErrInvalidToken},
		{name: "none algorithm", token: noneAlg, want: ErrInvalidToken},
	}

	tokens := newTestTokens(time.Now())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tokens.Verify(tc.token)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Verify() error = %v, want %v", err, tc.want)
			}
			if apperr.KindOf(err) != apperr.Unauthenticated {
				t.Fatalf("expected Unauthenticated kind, got %v", apperr.KindOf(err))
			}
		})
	}
}

type stubVerifier struct {
	identity Identity
	err      error
}

func (s stubVerifier) Verify(string) (Identity, error) {
	return s.identity, s.err
}

func TestGuardRequireAuthenticated(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		verifier stubVerifier
		wantKind apperr.Kind
		wantErr  bool
	}{
		{name: "valid", token: "t", verifier: stubVerifier{identity: Identity{UserID: 3, Role: models.RoleUser}}},
		{name: "missing", token: "", wantErr: true, wantKind: apperr.Unauthenticated},
		{name: "invalid", token: "t", verifier: stubVerifier{err: ErrInvalidToken}, wantErr: true, wantKind: apperr.Unauthenticated},
		{name: "banned", token: "t", verifier: stubVerifier{identity: Identity{UserID: 3, Role: models.RoleBanned}}, wantErr: true, wantKind: apperr.Forbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			identity, err := NewGuard(tc.verifier).RequireAuthenticated(tc.token)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				if apperr.KindOf(err) != tc.wantKind {
					t.Fatalf("kind = %v, want %v", apperr.KindOf(err), tc.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if identity.UserID != 3 {
				t.Fatalf("unexpected identity %#v", identity)
			}
		})
	}
}

func TestRequireRoleAndOwnership(t *testing.T) {
	admin := Identity{UserID: 1, Role: models.RoleAdmin}
	editor := Identity{UserID: 2, Role: models.RoleEditor}
	user := Identity{UserID: 3, Role: models.RoleUser}
	banned := Identity{UserID: 4, Role: models.RoleBanned}

	if err := RequireRole(admin, models.RoleAdmin); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
	if err := RequireRole(editor, models.RoleEditor, models.RoleAdmin); err != nil {
		t.Fatalf("editor should pass: %v", err)
	}
	if err := RequireRole(user, models.RoleEditor, models.RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("user should be forbidden, got %v", err)
	}
	if err := RequireRole(banned, models.RoleBanned); !errors.Is(err, ErrBanned) {
		t.Fatalf("banned must never pass, got %v", err)
	}

	if err := RequireOwnerOrRole(user, 3, models.RoleAdmin); err != nil {
		t.Fatalf("owner should pass: %v", err)
	}
	if err := RequireOwnerOrRole(admin, 3, models.RoleAdmin); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
	if err := RequireOwnerOrRole(editor, 3, models.RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner editor should be forbidden, got %v", err)
	}
	if err := RequireOwnerOrRole(banned, 4, models.RoleAdmin); !errors.Is(err, ErrBanned) {
		t.Fatalf("banned owner should be rejected, got %v", err)
	}
}
