package views

import (
	"context"

	"github.com/stockpulse/tradedesk/internal/navigator"
	"github.com/stockpulse/tradedesk/internal/restclient"
	"github.com/stockpulse/tradedesk/internal/session"
	"github.com/stockpulse/tradedesk/pkg/forms"
)

// Validation messages shared by the auth forms.
const (
	messageAllFieldsRequired    = "All fields must be filled out"
	messagePasswordsDoNotMatch  = "Passwords do not match"
	messageUsernameAlphanumeric = "Username must contain only letters and numbers"
)

// LoginView drives the login screen.
type LoginView struct {
	client   *restclient.Client
	sessions session.Store
	nav      navigator.Navigator
	notifier Notifier
}

// NewLoginView wires a LoginView.
func NewLoginView(client *restclient.Client, sessions session.Store, nav navigator.Navigator, notifier Notifier) *LoginView {
	return &LoginView{client: client, sessions: sessions, nav: nav, notifier: notifier}
}

// Submit validates locally, then exchanges the credentials for a token.
// On success the token is stored and the app navigates home; on failure
// the server's message is shown and the error returned. Validation
// failures never issue a network call.
func (view *LoginView) Submit(ctx context.Context, username string, password string) error {
	if err := forms.Validate(
		forms.Field{Name: "username", Value: username, Rules: []forms.Rule{
			forms.NonEmpty(messageAllFieldsRequired),
			forms.Alphanumeric(messageUsernameAlphanumeric),
		}},
		forms.Field{Name: "password", Value: password, Rules: []forms.Rule{
			forms.NonEmpty(messageAllFieldsRequired),
		}},
	); err != nil {
		return err
	}

	result, err := view.client.Login(ctx, restclient.LoginRequest{UserName: username, Password: password})
	if err != nil {
		view.notifier.Notify(restclient.UserMessage(err))
		return err
	}
	if err := view.sessions.Save(ctx, result.Token); err != nil {
		return err
	}
	view.nav.Go(navigator.PathRoot)
	return nil
}

// RegisterView drives the registration screen. Registration logs the new
// user in immediately.
type RegisterView struct {
	client   *restclient.Client
	sessions session.Store
	nav      navigator.Navigator
	notifier Notifier
}

// NewRegisterView wires a RegisterView.
func NewRegisterView(client *restclient.Client, sessions session.Store, nav navigator.Navigator, notifier Notifier) *RegisterView {
	return &RegisterView{client: client, sessions: sessions, nav: nav, notifier: notifier}
}

// RegisterForm is the raw register screen input.
type RegisterForm struct {
	Username        string
	Name            string
	Password        string
	ConfirmPassword string
}

// Submit validates the form, registers, stores the returned token, and
// navigates home.
func (view *RegisterView) Submit(ctx context.Context, form RegisterForm) error {
	if err := forms.Validate(
		forms.Field{Name: "username", Value: form.Username, Rules: []forms.Rule{
			forms.NonEmpty(messageAllFieldsRequired),
			forms.Alphanumeric(messageUsernameAlphanumeric),
		}},
		forms.Field{Name: "name", Value: form.Name, Rules: []forms.Rule{
			forms.NonEmpty(messageAllFieldsRequired),
		}},
		forms.Field{Name: "password", Value: form.Password, Rules: []forms.Rule{
			forms.NonEmpty(messageAllFieldsRequired),
		}},
		forms.Field{Name: "confirmPassword", Value: form.ConfirmPassword, Rules: []forms.Rule{
			forms.NonEmpty(messageAllFieldsRequired),
			forms.Matches(form.Password, messagePasswordsDoNotMatch),
		}},
	); err != nil {
		return err
	}

	result, err := view.client.Register(ctx, restclient.RegisterRequest{
		UserName: form.Username,
		Name:     form.Name,
		Password: form.Password,
	})
	if err != nil {
		view.notifier.Notify(restclient.UserMessage(err))
		return err
	}
	if err := view.sessions.Save(ctx, result.Token); err != nil {
		return err
	}
	view.nav.Go(navigator.PathRoot)
	return nil
}

// Logout clears the credential and returns to the login screen.
func Logout(ctx context.Context, sessions session.Store, nav navigator.Navigator) error {
	if err := sessions.Clear(ctx); err != nil {
		return err
	}
	nav.Go(navigator.PathLogin)
	return nil
}
