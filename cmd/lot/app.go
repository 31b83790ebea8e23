package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/fkhayef/thinglibrary/internal/state"
	"github.com/fkhayef/thinglibrary/pkg/client"
	"github.com/fkhayef/thinglibrary/pkg/logging"
)

var errSignedOut = errors.New("not signed in, run `lot login` first")

type app struct {
	out    io.Writer
	log    *slog.Logger
	client *client.Client
}

func (a *app) setup(c *cli.Context) error {
	a.log = logging.New(c.App.ErrWriter, logging.ParseLevel(c.GlobalString("log-level")))
	a.client = client.New(c.GlobalString("api"),
		client.WithTokenFile(c.GlobalString("token-file")),
		client.WithLogger(a.log),
	)
	return a.client.LoadSession()
}

// view is one command run: a scope bound to the signed-in user
type view struct {
	*app
	scope  *state.Scope
	userID string
}

func (v *view) ctx() context.Context {
	return v.scope.Context()
}

// open resolves the session and runs the profile gate for location. The
// caller must close the returned view.
func (a *app) open(location string) (*view, error) {
	scope := state.NewScope(context.Background())
	session := state.StartSession(scope, a.client, a.log)
	scope.Wait()

	userID := session.UserID()
	if userID == "" {
		scope.Close()
		return nil, errSignedOut
	}

	v := &view{app: a, scope: scope, userID: userID}
	v.gate(state.NewProfileGate(a.client), location)
	return v, nil
}

func (v *view) close() {
	v.scope.Close()
}

func (v *view) gate(g *state.ProfileGate, location string) {
	if to := g.Check(v.ctx(), v.userID, location); to != "" {
		fmt.Fprintf(v.out, "Your profile is incomplete. Add your name and contact info with `lot set-profile` (%s).\n\n", to)
	}
}

func (v *view) library() *state.Library {
	lib := state.NewLibrary(v.scope, v.client)
	lib.Load(v.userID)
	v.scope.Wait()
	return lib
}

// run wraps a command action that needs a signed-in view
func (a *app) run(location func(c *cli.Context) string, fn func(v *view, c *cli.Context) error) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		v, err := a.open(location(c))
		if err != nil {
			return err
		}
		defer v.close()
		return fn(v, c)
	}
}

func at(path string) func(*cli.Context) string {
	return func(*cli.Context) string { return path }
}

func atArg(prefix string) func(*cli.Context) string {
	return func(c *cli.Context) string { return prefix + c.Args().First() }
}

func (a *app) table(header string, rows [][]string) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	tw.Flush()
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func argID(c *cli.Context, i int, name string) (int64, error) {
	raw := c.Args().Get(i)
	if raw == "" {
		return 0, errors.Errorf("missing %s", name)
	}
	return parseID(raw, name)
}

func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// argIDs parses the arguments from position i on
func argIDs(c *cli.Context, from int, name string) ([]int64, error) {
	var ids []int64
	if c.NArg() <= from {
		return nil, errors.Errorf("at least one %s is required", name)
	}
	for _, raw := range c.Args()[from:] {
		id, err := parseID(raw, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// idList parses a comma separated flag value; empty means the empty set
func idList(raw, name string) ([]int64, error) {
	ids := []int64{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		id, err := parseID(part, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func optString(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	s := c.String(name)
	return &s
}

func optFloat(c *cli.Context, name string) *float64 {
	if !c.IsSet(name) {
		return nil
	}
	f := c.Float64(name)
	return &f
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (a *app) commands() []cli.Command {
	locationFlags := []cli.Flag{
		cli.Float64Flag{Name: "lat", Usage: "latitude"},
		cli.Float64Flag{Name: "lng", Usage: "longitude"},
	}
	credentialFlags := []cli.Flag{
		cli.StringFlag{Name: "email", Usage: "account email"},
		cli.StringFlag{Name: "password", Usage: "account password", EnvVar: "LOT_PASSWORD"},
	}

	return []cli.Command{
		{Name: "signup", Usage: "create an account", Flags: credentialFlags, Action: a.signup},
		{Name: "login", Usage: "sign in", Flags: credentialFlags, Action: a.login},
		{Name: "logout", Usage: "sign out", Action: a.logout},
		{Name: "whoami", Usage: "show the signed-in user", Action: a.run(at("/"), whoami)},

		{
			Name:   "things",
			Usage:  "list the things you can see",
			Flags:  []cli.Flag{cli.StringFlag{Name: "user", Usage: "only things of this owner"}, cli.BoolFlag{Name: "map", Usage: "group by owner location"}},
			Action: a.run(at("/"), listItems(state.TypeThing)),
		},
		{
			Name:   "requests",
			Usage:  "list the requests you can see",
			Flags:  []cli.Flag{cli.StringFlag{Name: "user", Usage: "only requests of this owner"}, cli.BoolFlag{Name: "map", Usage: "group by owner location"}},
			Action: a.run(at("/"), listItems(state.TypeRequest)),
		},
		{
			Name:   "mine",
			Usage:  "list your own things, or requests with --requests",
			Flags:  []cli.Flag{cli.BoolFlag{Name: "requests"}},
			Action: a.run(at("/my-things"), mine),
		},
		{Name: "thing", Usage: "show one item", ArgsUsage: "ITEM", Action: a.run(atArg("/thing/"), showItem)},
		{
			Name:  "add",
			Usage: "add a thing, or a request with --request",
			Flags: append([]cli.Flag{
				cli.StringFlag{Name: "name"},
				cli.StringFlag{Name: "description"},
				cli.BoolFlag{Name: "request"},
				cli.BoolFlag{Name: "private", Usage: "only visible to you and the groups it is shared with"},
				cli.StringFlag{Name: "groups", Usage: "comma separated group ids to share with"},
			}, locationFlags...),
			Action: a.run(at("/my-things"), addItem),
		},
		{
			Name:      "edit",
			Usage:     "change an item you own",
			ArgsUsage: "ITEM",
			Flags: append([]cli.Flag{
				cli.StringFlag{Name: "name"},
				cli.StringFlag{Name: "description"},
				cli.BoolFlag{Name: "public"},
				cli.BoolFlag{Name: "private"},
				cli.BoolFlag{Name: "clear-location"},
			}, locationFlags...),
			Action: a.run(atArg("/thing/"), editItem),
		},
		{Name: "rm", Usage: "delete an item you own", ArgsUsage: "ITEM", Action: a.run(atArg("/thing/"), removeItem)},

		{
			Name:      "share",
			Usage:     "share an item with groups; --exact makes them the only ones, --all picks every group you are in",
			ArgsUsage: "ITEM [GROUP...]",
			Flags:     []cli.Flag{cli.BoolFlag{Name: "exact"}, cli.BoolFlag{Name: "all"}},
			Action:    a.run(atArg("/thing/"), shareItem),
		},
		{Name: "unshare", Usage: "stop sharing an item with groups", ArgsUsage: "ITEM GROUP...", Action: a.run(atArg("/thing/"), unshareItem)},
		{
			Name:      "share-all",
			Usage:     "share all your things (or --requests) with a group",
			ArgsUsage: "GROUP",
			Flags:     []cli.Flag{cli.BoolFlag{Name: "requests"}},
			Action:    a.run(atArg("/groups/"), shareAll),
		},
		{
			Name:      "bulk-share",
			Usage:     "set the exact groups of several items",
			ArgsUsage: "ITEM...",
			Flags:     []cli.Flag{cli.StringFlag{Name: "groups", Usage: "comma separated group ids, empty to unshare everywhere"}},
			Action:    a.run(at("/my-things"), bulkShare),
		},
		{Name: "bulk-rm", Usage: "delete several items", ArgsUsage: "ITEM...", Action: a.run(at("/my-things"), bulkRemove)},

		{
			Name:   "groups",
			Usage:  "list your groups, or joinable ones with --public",
			Flags:  []cli.Flag{cli.BoolFlag{Name: "public"}},
			Action: a.run(at("/groups"), listGroups),
		},
		{Name: "group", Usage: "show a group, its members and shared items", ArgsUsage: "GROUP", Action: a.run(atArg("/groups/"), showGroup)},
		{
			Name:  "create-group",
			Usage: "create a group you administer",
			Flags: append([]cli.Flag{
				cli.StringFlag{Name: "name"},
				cli.StringFlag{Name: "description"},
				cli.BoolFlag{Name: "public"},
			}, locationFlags...),
			Action: a.run(at("/groups/new"), createGroup),
		},
		{
			Name:      "edit-group",
			Usage:     "change a group you administer",
			ArgsUsage: "GROUP",
			Flags: append([]cli.Flag{
				cli.StringFlag{Name: "name"},
				cli.StringFlag{Name: "description"},
				cli.BoolFlag{Name: "public"},
				cli.BoolFlag{Name: "private"},
			}, locationFlags...),
			Action: a.run(atArg("/groups/"), editGroup),
		},
		{Name: "delete-group", Usage: "delete a group you administer", ArgsUsage: "GROUP", Action: a.run(atArg("/groups/"), deleteGroup)},
		{
			Name:      "join",
			Usage:     "join with an invite token, or a public group by id with --public",
			ArgsUsage: "TOKEN|GROUP",
			Flags:     []cli.Flag{cli.BoolFlag{Name: "public"}},
			Action:    a.run(atArg("/join/"), joinGroup),
		},
		{Name: "leave", Usage: "leave a group", ArgsUsage: "GROUP", Action: a.run(atArg("/groups/"), leaveGroup)},
		{Name: "invite", Usage: "print a group's invite link", ArgsUsage: "GROUP", Action: a.run(atArg("/groups/"), invite)},
		{Name: "set-role", Usage: "make a member ADMIN or MEMBER", ArgsUsage: "GROUP USER ROLE", Action: a.run(atArg("/groups/"), setRole)},
		{Name: "kick", Usage: "remove a member from a group", ArgsUsage: "GROUP USER", Action: a.run(atArg("/groups/"), kick)},

		{Name: "profile", Usage: "show a profile and its visible items", ArgsUsage: "[USER]", Action: a.run(profileLocation, showProfile)},
		{
			Name:  "set-profile",
			Usage: "edit your profile",
			Flags: append([]cli.Flag{
				cli.StringFlag{Name: "name"},
				cli.StringFlag{Name: "contact"},
			}, locationFlags...),
			Action: a.run(at("/settings"), setProfile),
		},

		{
			Name:  "admin",
			Usage: "platform-wide lists for admins",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "tab", Value: string(state.TabGroups), Usage: "groups, users, things or requests"},
				cli.Int64Flag{Name: "delete-group", Usage: "delete any group by id"},
			},
			Action: a.run(func(c *cli.Context) string { return "/admin?tab=" + c.String("tab") }, adminView),
		},
		{Name: "open", Usage: "run the view behind an app location, e.g. /groups/7", ArgsUsage: "LOCATION", Action: openLocation},
	}
}
