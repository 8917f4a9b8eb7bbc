package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSignupForm(t *testing.T) {
	valid := SignupForm{
		Username:        "amina",
		Email:           "amina@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Language:        "Arabic",
	}
	assert.Nil(t, ValidateStruct(valid))

	bad := valid
	bad.Email = "not-an-email"
	bad.ConfirmPassword = "other"
	bad.Language = "French"
	errs := ValidateStruct(bad)
	assert.Equal(t, "Enter a valid email address.", errs.Get("email"))
	assert.Equal(t, "Passwords do not match.", errs.Get("confirm_password"))
	assert.Equal(t, "Choose one of: English, Deutsch, Arabic.", errs.Get("language"))
	assert.Empty(t, errs.Get("username"))
}

func TestValidateVideoForm(t *testing.T) {
	tests := []struct {
		name string
		form VideoForm
		want string
	}{
		{name: "valid", form: VideoForm{Link: "https://youtu.be/abc"}},
		{name: "missing link", form: VideoForm{}, want: "This field is required."},
		{name: "not a url", form: VideoForm{Link: "youtube"}, want: "Enter a valid URL, including http:// or https://."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateStruct(tt.form)
			assert.Equal(t, tt.want, errs.Get("link"))
		})
	}
}

func TestValidateLoginAndSubscribe(t *testing.T) {
	errs := ValidateStruct(LoginForm{})
	assert.Equal(t, "This field is required.", errs.Get("email"))
	assert.Equal(t, "This field is required.", errs.Get("password"))

	assert.Nil(t, ValidateStruct(SubscribeForm{Plan: "yearly"}))
	assert.NotEmpty(t, ValidateStruct(SubscribeForm{Plan: "trial"}).Get("plan"))
}
