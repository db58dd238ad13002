package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"reviewme/internal/apperr"
)

func newTestService(store UserStore) *Service {
	return NewService(store, NewHasher(bcrypt.MinCost), testTokens())
}

func validSignUp() SignUpInput {
	return SignUpInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "analytical"}
}

func TestSignUpRequiresAllFields(t *testing.T) {
	svc := newTestService(newMemUserStore())
	blank := []func(*SignUpInput){
		func(in *SignUpInput) { in.FirstName = "" },
		func(in *SignUpInput) { in.LastName = "  " },
		func(in *SignUpInput) { in.Email = "" },
		func(in *SignUpInput) { in.Password = "" },
	}
	for i, mutate := range blank {
		in := validSignUp()
		mutate(&in)
		_, err := svc.SignUp(context.Background(), in)
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("case %d: err = %v, want validation", i, err)
		}
	}
}

func TestSignUpStoresHashNotPassword(t *testing.T) {
	store := newMemUserStore()
	svc := newTestService(store)

	u, err := svc.SignUp(context.Background(), validSignUp())
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	stored, _ := store.GetByID(context.Background(), u.ID)
	if stored == nil {
		t.Fatal("user not persisted")
	}
	if stored.PasswordHash == "analytical" || !svc.Hasher.Compare(stored.PasswordHash, "analytical") {
		t.Fatal("stored password is not a bcrypt hash of the input")
	}
	if stored.CreatedAt.IsZero() || !stored.CreatedAt.Equal(stored.UpdatedAt) {
		t.Fatalf("timestamps not set: %+v", stored)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	store := newMemUserStore()
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, validSignUp()); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}

	dup := validSignUp()
	dup.Email = "  ADA@example.com "
	dup.FirstName = "Other"
	_, err := svc.SignUp(ctx, dup)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if store.count() != 1 {
		t.Fatalf("store holds %d users, want 1", store.count())
	}
}

func TestSignUpDuplicateDetectedByStore(t *testing.T) {
	store := newMemUserStore()
	svc := newTestService(racingStore{store})
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, validSignUp()); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}
	_, err := svc.SignUp(ctx, validSignUp())
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if store.count() != 1 {
		t.Fatalf("store holds %d users, want 1", store.count())
	}
}

func TestSignUpPasswordTooLong(t *testing.T) {
	svc := newTestService(newMemUserStore())
	in := validSignUp()
	in.Password = strings.Repeat("x", MaxPasswordBytes+1)
	if _, err := svc.SignUp(context.Background(), in); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestSignUpStoreFailureIsInternal(t *testing.T) {
	store := newMemUserStore()
	store.getErr = errors.New("store down")
	svc := newTestService(store)

	_, err := svc.SignUp(context.Background(), validSignUp())
	if err == nil || apperr.StatusOf(err) != 500 {
		t.Fatalf("err = %v, want unclassified", err)
	}
}

func TestSignUpThenSignIn(t *testing.T) {
	svc := newTestService(newMemUserStore())
	ctx := context.Background()

	u, err := svc.SignUp(ctx, validSignUp())
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	sess, err := svc.SignIn(ctx, SignInInput{Email: "Ada@Example.com", Password: "analytical"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if sess.User.ID != u.ID || sess.Token == "" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	claims, err := svc.Tokens.Parse(sess.Token)
	if err != nil || claims.UserID != u.ID {
		t.Fatalf("token does not identify the user: %v %+v", err, claims)
	}
}

func TestSignInFailures(t *testing.T) {
	svc := newTestService(newMemUserStore())
	ctx := context.Background()
	if _, err := svc.SignUp(ctx, validSignUp()); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	cases := []struct {
		name string
		in   SignInInput
		kind apperr.Kind
	}{
		{"missing email", SignInInput{Password: "analytical"}, apperr.KindValidation},
		{"missing password", SignInInput{Email: "ada@example.com"}, apperr.KindValidation},
		{"unknown email", SignInInput{Email: "bob@example.com", Password: "analytical"}, apperr.KindNotFound},
		{"wrong password", SignInInput{Email: "ada@example.com", Password: "difference"}, apperr.KindUnauthorized},
	}
	for _, tc := range cases {
		sess, err := svc.SignIn(ctx, tc.in)
		if !apperr.IsKind(err, tc.kind) {
			t.Errorf("%s: err = %v, want %s", tc.name, err, tc.kind)
		}
		if sess != nil {
			t.Errorf("%s: got a session", tc.name)
		}
	}
}
