package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/CareMeds-Health/medication-service/internal/auth"
)

// TestSecret is the shared HMAC secret used to sign tokens in tests.
const TestSecret = "e2e-test-secret"

// CreateTestVerifier returns a verifier that accepts tokens produced by
// GenerateTestJWT.
func CreateTestVerifier(t *testing.T) *auth.Verifier {
	t.Helper()
	return auth.NewVerifier(auth.Config{
		Issuer: auth.DefaultIssuer,
		Secret: TestSecret,
	})
}

// GenerateTestJWT creates a valid HS256 token for the given user and roles.
func GenerateTestJWT(t *testing.T, userID string, roles []string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   userID,
		"iss":   auth.DefaultIssuer,
		"exp":   time.Now().Add(1 * time.Hour).Unix(),
		"iat":   time.Now().Unix(),
		"roles": interfaceSlice(roles),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(TestSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return tokenString
}

// GenerateAdminToken creates an ADMIN token for testing
func GenerateAdminToken(t *testing.T) string {
	t.Helper()
	return GenerateTestJWT(t, "admin-123", []string{"ADMIN"})
}

// GenerateCaregiverToken creates a CAREGIVER token for testing
func GenerateCaregiverToken(t *testing.T) string {
	t.Helper()
	return GenerateTestJWT(t, "caregiver-123", []string{"CAREGIVER"})
}

// GenerateViewerToken creates a VIEWER token for testing
func GenerateViewerToken(t *testing.T) string {
	t.Helper()
	return GenerateTestJWT(t, "viewer-123", []string{"VIEWER"})
}

// interfaceSlice converts []string to []interface{} for JWT claims
func interfaceSlice(strings []string) []interface{} {
	result := make([]interface{}, len(strings))
	for i, s := range strings {
		result[i] = s
	}
	return result
}
