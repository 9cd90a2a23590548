package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=3"`
}

type listing struct {
	ID     string          `json:"id" validate:"required"`
	Price  decimal.Decimal `json:"price" validate:"gte=0"`
	Rating float64         `json:"rating" validate:"gte=0,lte=5"`
	Image  string          `json:"image" validate:"omitempty,url"`
	Lang   string          `json:"lang" validate:"omitempty,oneof=en zh"`
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(loginRequest{Email: "alice@example.com", Password: "secret"}))
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	fields := fieldsOf(t, Validate(loginRequest{Password: "secret"}))
	assert.Equal(t, "is required", fields["email"])
}

func TestValidate_InvalidEmail(t *testing.T) {
	fields := fieldsOf(t, Validate(loginRequest{Email: "nope", Password: "secret"}))
	assert.Equal(t, "must be a valid email address", fields["email"])
}

func TestValidate_Min(t *testing.T) {
	fields := fieldsOf(t, Validate(loginRequest{Email: "a@b.io", Password: "x"}))
	assert.Contains(t, fields["password"], "at least 3")
}

func TestValidate_DecimalPrice(t *testing.T) {
	ok := listing{ID: "1", Price: decimal.NewFromInt(499), Rating: 4.8}
	assert.NoError(t, Validate(ok))

	bad := listing{ID: "1", Price: decimal.NewFromInt(-1), Rating: 4.8}
	fields := fieldsOf(t, Validate(bad))
	assert.Contains(t, fields["price"], "greater than or equal to 0")
}

func TestValidate_RatingRange(t *testing.T) {
	fields := fieldsOf(t, Validate(listing{ID: "1", Rating: 7}))
	assert.Contains(t, fields["rating"], "5")
}

func TestValidate_URLAndOneOf(t *testing.T) {
	fields := fieldsOf(t, Validate(listing{ID: "1", Image: "not a url", Lang: "fr"}))
	assert.Equal(t, "must be a valid URL", fields["image"])
	assert.Contains(t, fields["lang"], "one of")
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(loginRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'email'")
	assert.Contains(t, err.Error(), "is required")
}

func TestDecodeAndValidate_Success(t *testing.T) {
	body := `{"email":"alice@example.com","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))

	var dst loginRequest
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, "alice@example.com", dst.Email)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{invalid"))

	var dst loginRequest
	err := DecodeAndValidate(req, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_ValidationFails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"bad"}`))

	var dst loginRequest
	err := DecodeAndValidate(req, &dst)
	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}
