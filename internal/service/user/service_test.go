package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

var admin = model.Principal{UserID: uuid.New(), Role: model.RoleAdmin, DisplayName: "Root"}

func setup() (*Service, *repository.Store) {
	store := memory.New()
	return NewService(store.Users, store.Doctors, security.NewBcryptHasher(bcrypt.MinCost), nil), store
}

func TestCreateDoctorAlsoCreatesDoctorRecord(t *testing.T) {
	svc, store := setup()
	ctx := context.Background()

	spec := &model.Specialization{Name: "Cardiology"}
	require.NoError(t, store.Specializations.Create(ctx, spec))

	u, err := svc.CreateUser(ctx, admin, model.CreateUserRequest{
		FirstName: "Meredith", LastName: "Grey", Email: "Grey@Clinic.test",
		Password: "long-enough", Role: "Doctor", SpecializationID: spec.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "grey@clinic.test", u.Email)
	assert.NotEqual(t, "long-enough", u.PasswordHash)

	doc, err := store.Doctors.GetByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Meredith Grey", doc.Name)
	assert.Equal(t, "Cardiology", doc.SpecializationName)
	assert.True(t, doc.IsActive)
}

func TestCreateUserErrors(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()
	req := model.CreateUserRequest{FirstName: "A", LastName: "B", Email: "a@b.test", Password: "long-enough", Role: "staff"}

	_, err := svc.CreateUser(ctx, model.Principal{Role: model.RoleStaff}, req)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	_, err = svc.CreateUser(ctx, admin, req)
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, admin, req)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	short := req
	short.Email, short.Password = "c@d.test", "short"
	_, err = svc.CreateUser(ctx, admin, short)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "password", appErr.Field)

	doc := req
	doc.Email, doc.Role, doc.SpecializationID = "e@f.test", "doctor", uuid.NewString()
	_, err = svc.CreateUser(ctx, admin, doc)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestRegisterCreatesUnverifiedPatient(t *testing.T) {
	svc, _ := setup()
	u, err := svc.Register(context.Background(), model.RegisterRequest{
		FirstName: "Pat", LastName: "Lee", Email: "pat@example.com", Password: "long-enough",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RolePatient, u.Role)
	assert.False(t, u.Verified)
}

func TestListUsersRequiresStaff(t *testing.T) {
	svc, _ := setup()
	_, err := svc.ListUsers(context.Background(), model.Principal{Role: model.RolePatient}, model.UserFilter{})
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	_, err = svc.ListUsers(context.Background(), admin, model.UserFilter{})
	assert.NoError(t, err)
}
