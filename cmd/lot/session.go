package main

import (
	"context"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/fkhayef/thinglibrary/internal/state"
)

func credentials(c *cli.Context) (string, string, error) {
	email, password := c.String("email"), c.String("password")
	if email == "" || password == "" {
		return "", "", errors.New("--email and --password are required")
	}
	return email, password, nil
}

func (a *app) signup(c *cli.Context) error {
	email, password, err := credentials(c)
	if err != nil {
		return err
	}
	s, err := a.client.SignUp(context.Background(), email, password)
	if err != nil {
		return err
	}
	a.printf("Account created, signed in as %s\n", s.User.Email)
	a.afterSignIn(s)
	return nil
}

func (a *app) login(c *cli.Context) error {
	email, password, err := credentials(c)
	if err != nil {
		return err
	}
	s, err := a.client.SignIn(context.Background(), email, password)
	if err != nil {
		return err
	}
	a.printf("Signed in as %s\n", s.User.Email)
	a.afterSignIn(s)
	return nil
}

func (a *app) afterSignIn(s *state.Session) {
	scope := state.NewScope(context.Background())
	defer scope.Close()
	v := &view{app: a, scope: scope, userID: s.User.ID}
	v.gate(state.NewProfileGate(a.client), "/")
}

func (a *app) logout(c *cli.Context) error {
	scope := state.NewScope(context.Background())
	defer scope.Close()

	session := state.StartSession(scope, a.client, a.log)
	scope.Wait()
	if session.UserID() == "" {
		a.printf("Not signed in\n")
		return nil
	}
	if err := session.Logout(scope.Context()); err != nil {
		a.log.Warn("sign out call failed, local session dropped anyway", "error", err)
	}
	a.printf("Signed out\n")
	return nil
}

func whoami(v *view, c *cli.Context) error {
	s, err := v.client.GetSession(v.ctx())
	if err != nil {
		return err
	}
	if s == nil {
		return errSignedOut
	}

	v.printf("User:    %s\n", s.User.ID)
	v.printf("Email:   %s\n", s.User.Email)
	v.printf("Expires: %s\n", s.ExpiresAt.Local().Format("2006-01-02 15:04"))

	p, err := v.client.GetProfile(v.ctx(), v.userID)
	if errors.Is(err, state.ErrNotFound) {
		v.printf("Profile: not set up\n")
		return nil
	}
	if err != nil {
		return err
	}
	v.printf("Name:    %s\n", p.DisplayName())
	v.printf("Contact: %s\n", deref(p.ContactInfo))
	if state.CanViewAdmin(&p) {
		v.printf("Role:    platform admin (`lot admin` available)\n")
	}
	return nil
}
