package model_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-regform/pkg/model"
)

func TestRegistrationFromValues_IgnoresWrongTypes(t *testing.T) {
	got := model.RegistrationFromValues(map[string]any{
		model.FieldName:    "Maria Silva",
		model.FieldEmail:   42,
		model.FieldTerms:   "true",
		model.FieldZipcode: "01310-100",
	})

	want := model.Registration{Name: "Maria Silva", Zipcode: "01310-100"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("registration mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistration_ValuesRoundTrip(t *testing.T) {
	reg := model.Registration{
		Name:                 "Maria Silva",
		Email:                "maria@example.com",
		Password:             "segredo123",
		PasswordConfirmation: "segredo123",
		Phone:                "(11) 91234-5678",
		CPF:                  "123.456.789-09",
		Zipcode:              "01310-100",
		Address:              "Avenida Paulista, Bela Vista",
		City:                 "São Paulo, SP",
		Terms:                true,
	}

	if diff := cmp.Diff(reg, model.RegistrationFromValues(reg.Values())); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldErrors_FieldsOrder(t *testing.T) {
	errs := model.FieldErrors{}
	errs.Set(model.FieldTerms, "terms")
	errs.Set("zzz", "unknown")
	errs.Set(model.FieldEmail, "email")
	errs.Set("aaa", "unknown")
	errs.Set(model.FieldName, "name")

	want := []string{model.FieldName, model.FieldEmail, model.FieldTerms, "aaa", "zzz"}
	if diff := cmp.Diff(want, errs.Fields()); diff != "" {
		t.Fatalf("fields order mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldErrors_SetBlankClears(t *testing.T) {
	errs := model.FieldErrors{model.FieldCity: "O campo cidade precisa ser preenchido"}
	errs.Set(model.FieldCity, "  ")
	if errs.Has(model.FieldCity) {
		t.Fatalf("expected blank message to clear city, got %q", errs.Get(model.FieldCity))
	}

	clone := errs.Clone()
	clone.Set(model.FieldCPF, "CPF inválido")
	if errs.Has(model.FieldCPF) {
		t.Fatalf("clone must not alias the original map")
	}
}
