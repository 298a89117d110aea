package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kheyma/kheyma-service/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestRegisterRequest_ToInput(t *testing.T) {
	in, errs := RegisterRequest{
		Email:    "a@x.com",
		Password: "secret1",
		DOB:      "1990-04-02",
		Package:  strPtr(" advanced "),
	}.ToInput()

	require.Nil(t, errs)
	require.NotNil(t, in.DOB)
	assert.Equal(t, time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC), *in.DOB)
	require.NotNil(t, in.Package)
	assert.Equal(t, domain.PackageAdvanced, *in.Package)

	_, errs = RegisterRequest{Email: "a@x.com", DOB: "02/04/1990"}.ToInput()
	assert.Contains(t, errs, "dob")

	in, errs = RegisterRequest{Email: "a@x.com", Package: strPtr("")}.ToInput()
	assert.Nil(t, errs)
	assert.Nil(t, in.Package)
	assert.Nil(t, in.DOB)
}

func TestUpdateProfileRequest_ToUpdate(t *testing.T) {
	upd, errs := UpdateProfileRequest{Address: strPtr("1 Pine Rd")}.ToUpdate()
	require.Nil(t, errs)
	assert.Equal(t, "1 Pine Rd", *upd.Address)
	assert.Nil(t, upd.DOB)
	assert.Nil(t, upd.Package)

	_, errs = UpdateProfileRequest{DOB: strPtr("yesterday")}.ToUpdate()
	assert.Contains(t, errs, "dob")
}

func TestUpdateProfileRequest_BlankClearsNullKeeps(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		clearPackage bool
		clearDOB     bool
	}{
		{name: "omitted", body: `{}`},
		{name: "null", body: `{"package":null,"dob":null}`},
		{name: "empty", body: `{"package":"","dob":""}`, clearPackage: true, clearDOB: true},
		{name: "blank", body: `{"package":"  "}`, clearPackage: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req UpdateProfileRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			upd, errs := req.ToUpdate()
			require.Nil(t, errs)
			assert.Nil(t, upd.Package)
			assert.Nil(t, upd.DOB)
			assert.Equal(t, tt.clearPackage, upd.ClearPackage)
			assert.Equal(t, tt.clearDOB, upd.ClearDOB)
		})
	}
}

func TestAdminUpdateUserRequest_ToAdminUpdate(t *testing.T) {
	var req AdminUpdateUserRequest
	require.NoError(t, json.Unmarshal([]byte(`{"email":"New@X.com","password":"changed1","package":"basic","dob":""}`), &req))

	upd, errs := req.ToAdminUpdate()
	require.Nil(t, errs)
	assert.Equal(t, "New@X.com", *upd.Email)
	assert.Equal(t, "changed1", *upd.Password)
	require.NotNil(t, upd.Profile.Package)
	assert.Equal(t, domain.PackageBasic, *upd.Profile.Package)
	assert.True(t, upd.Profile.ClearDOB)

	assert.Equal(t, domain.PackageFull, ParsePackage(" full "))
	assert.Equal(t, domain.PackageType(""), ParsePackage(""))
}

func TestNewUserResponse_OmitsHash(t *testing.T) {
	dob := time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC)
	pkg := domain.PackageFull
	resp := NewUserResponse(&domain.User{
		ID:           "u1",
		Email:        "a@x.com",
		PasswordHash: "$2a$12$secret",
		DOB:          &dob,
		Role:         domain.RoleAdmin,
		Package:      &pkg,
		Enabled:      true,
	})

	assert.Equal(t, "u1", resp.ID)
	assert.Equal(t, "1990-04-02", *resp.DOB)
	assert.Equal(t, "FULL", *resp.Package)
	assert.Equal(t, "ADMIN", resp.Role)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "$2a$12$secret")
}
