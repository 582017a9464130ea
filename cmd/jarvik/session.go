package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/a-h/jarvik/auth"
	"github.com/a-h/jarvik/client"
	"github.com/a-h/jarvik/session"
)

// ClientFlags are shared by the commands that talk to a running gateway.
type ClientFlags struct {
	ServerURL   string `help:"The URL of the gateway." env:"JARVIK_SERVER_URL" default:"http://localhost:8000"`
	SessionFile string `help:"The session file, defaults to jarvik/session.yaml in the user config directory." env:"JARVIK_SESSION_FILE" default:""`
}

func (f ClientFlags) client() client.Client {
	return client.New(f.ServerURL)
}

func (f ClientFlags) sessionPath() (string, error) {
	if f.SessionFile != "" {
		return f.SessionFile, nil
	}
	return session.DefaultPath()
}

func (f ClientFlags) load() (s session.Session, path string, err error) {
	if path, err = f.sessionPath(); err != nil {
		return s, path, err
	}
	s, err = session.Load(path)
	return s, path, err
}

// loadLoggedIn loads the session, failing if there are no saved credentials.
func (f ClientFlags) loadLoggedIn() (s session.Session, path string, err error) {
	s, path, err = f.load()
	if err != nil {
		return s, path, err
	}
	if !s.LoggedIn() {
		return s, path, fmt.Errorf("not logged in, run jarvik login first")
	}
	return s, path, nil
}

type LoginCommand struct {
	ClientFlags `embed:""`
	Username    string `help:"Your username." required:""`
	APIKey      string `help:"Your API key." env:"JARVIK_API_KEY" required:""`
	APIURL      string `help:"The context service URL, leave empty to use the gateway's default." default:""`
}

func (c LoginCommand) Run(ctx context.Context) (err error) {
	s, path, err := c.load()
	if err != nil {
		return err
	}
	creds := auth.Credentials{
		APIURL:   c.APIURL,
		Username: c.Username,
		APIKey:   c.APIKey,
	}
	gw := c.client()
	user, err := gw.AuthMe(ctx, creds)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	s.APIURL, s.Username, s.APIKey = creds.APIURL, creds.Username, creds.APIKey
	if names, err := gw.Models(ctx); err == nil {
		s.Models = names
	}
	if err = session.Save(path, s); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Logged in as " + c.Username))
	fmt.Println(formatJSON(user))
	return nil
}

type LogoutCommand struct {
	ClientFlags `embed:""`
}

func (c LogoutCommand) Run(ctx context.Context) (err error) {
	path, err := c.sessionPath()
	if err != nil {
		return err
	}
	if err = session.Delete(path); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Logged out"))
	return nil
}

type WhoamiCommand struct {
	ClientFlags `embed:""`
}

func (c WhoamiCommand) Run(ctx context.Context) (err error) {
	s, _, err := c.loadLoggedIn()
	if err != nil {
		return err
	}
	user, err := c.client().AuthMe(ctx, s.Credentials())
	if err != nil {
		return err
	}
	fmt.Println(formatJSON(user))
	return nil
}

type ModelsCommand struct {
	ClientFlags `embed:""`
}

func (c ModelsCommand) Run(ctx context.Context) (err error) {
	s, path, err := c.load()
	if err != nil {
		return err
	}
	names, err := c.client().Models(ctx)
	if err != nil {
		return err
	}
	s.Models = names
	if err = session.Save(path, s); err != nil {
		return err
	}
	fmt.Println(formatModels(names, s.Model))
	return nil
}

type SetModelCommand struct {
	ClientFlags `embed:""`
	Model       string `arg:"" help:"The model name, or auto."`
}

func (c SetModelCommand) Run(ctx context.Context) (err error) {
	s, path, err := c.load()
	if err != nil {
		return err
	}
	if err = setModel(&s, c.Model); err != nil {
		return err
	}
	if err = session.Save(path, s); err != nil {
		return err
	}
	fmt.Println(formatModels(s.Models, s.Model))
	return nil
}

// setModel selects model, if the gateway listed it last time the models were fetched.
func setModel(s *session.Session, model string) error {
	if model == "auto" || model == "" {
		s.Model = ""
		return nil
	}
	if len(s.Models) > 0 && !slices.Contains(s.Models, model) {
		return fmt.Errorf("model %q is not available, run jarvik models to refresh the list", model)
	}
	s.Model = model
	return nil
}

type SetMemoryCommand struct {
	ClientFlags `embed:""`
	Mode        string `arg:"" enum:"public,private" help:"public lets the context service remember your queries, private does not."`
}

func (c SetMemoryCommand) Run(ctx context.Context) (err error) {
	s, path, err := c.load()
	if err != nil {
		return err
	}
	s.Memory = c.Mode == "public"
	if err = session.Save(path, s); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Memory mode: " + c.Mode))
	return nil
}
