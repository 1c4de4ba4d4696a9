package web

import (
	"strconv"
	"strings"

	"user-management-app/internal/entity"
	"user-management-app/internal/validation"
)

type createForm struct {
	Name   string
	Email  string
	Errors map[string]string
}

type updateForm struct {
	ID     string
	Name   string
	Email  string
	Errors map[string]string
}

type updateInput struct {
	ID int `json:"id" validate:"gt=0"`
	entity.UserInput
}

func (f *createForm) input() entity.UserInput {
	return entity.UserInput{Name: f.Name, Email: f.Email}
}

// validate fills f.Errors and reports whether the form may be submitted.
func (f *createForm) validate(v *validation.Validator) bool {
	f.Errors = validation.Fields(v.Validate(f.input()))
	return len(f.Errors) == 0
}

func (f *updateForm) validate(v *validation.Validator) (int, entity.UserInput, bool) {
	in := updateInput{UserInput: entity.UserInput{Name: f.Name, Email: f.Email}}
	id, idErr := strconv.Atoi(strings.TrimSpace(f.ID))
	if idErr == nil {
		in.ID = id
	}

	f.Errors = validation.Fields(v.Validate(in))
	if idErr != nil {
		if f.Errors == nil {
			f.Errors = map[string]string{}
		}
		f.Errors["id"] = validation.Messages["id"]
	}
	return in.ID, in.UserInput, len(f.Errors) == 0
}
