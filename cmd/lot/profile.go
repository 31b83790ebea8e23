package main

import (
	"fmt"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/fkhayef/thinglibrary/internal/state"
)

func profileLocation(c *cli.Context) string {
	if user := c.Args().First(); user != "" {
		return "/user/" + user
	}
	return "/settings"
}

func showProfile(v *view, c *cli.Context) error {
	userID := c.Args().First()
	if userID == "" {
		userID = v.userID
	}

	p, err := v.client.GetProfile(v.ctx(), userID)
	if errors.Is(err, state.ErrNotFound) {
		if userID == v.userID {
			v.printf("You have no profile yet, create it with `lot set-profile`\n")
			return nil
		}
		return errors.New("user not found")
	}
	if err != nil {
		return err
	}

	name := p.DisplayName()
	if name == "" {
		name = state.UnknownOwner
	}
	v.printf("%s\n", name)
	if contact := deref(p.ContactInfo); contact != "" {
		v.printf("Contact: %s\n", contact)
	}
	if p.Latitude != nil && p.Longitude != nil {
		v.printf("Location: %.5f, %.5f\n", *p.Latitude, *p.Longitude)
	}
	if userID == v.userID && !p.IsComplete() {
		v.printf("Profile incomplete: name and contact info are required\n")
	}

	items, err := v.client.ListItems(v.ctx(), state.ItemQuery{UserIDs: []string{userID}})
	if err != nil {
		return err
	}
	for _, t := range []state.ItemType{state.TypeThing, state.TypeRequest} {
		heading := "Things"
		if t == state.TypeRequest {
			heading = "Requests"
		}
		var rows [][]string
		for _, it := range items {
			if it.Type == t {
				rows = append(rows, []string{idString(it.ID), it.Name, yesNo(it.IsPublic)})
			}
		}
		v.printf("\n%s:\n", heading)
		if len(rows) == 0 {
			v.printf("(none)\n")
			continue
		}
		v.table("ID\tNAME\tPUBLIC", rows)
	}
	return nil
}

func setProfile(v *view, c *cli.Context) error {
	current, err := v.client.GetProfile(v.ctx(), v.userID)
	if err != nil && !errors.Is(err, state.ErrNotFound) {
		return err
	}

	in := state.ProfileInput{
		FullName:    current.FullName,
		ContactInfo: current.ContactInfo,
		Latitude:    current.Latitude,
		Longitude:   current.Longitude,
	}
	if s := optString(c, "name"); s != nil {
		in.FullName = s
	}
	if s := optString(c, "contact"); s != nil {
		in.ContactInfo = s
	}
	if f := optFloat(c, "lat"); f != nil {
		in.Latitude = f
	}
	if f := optFloat(c, "lng"); f != nil {
		in.Longitude = f
	}

	p, err := v.client.SaveProfile(v.ctx(), in)
	if err != nil {
		return err
	}
	v.printf("Profile saved\n")
	if !p.IsComplete() {
		v.printf("Name and contact info are still required\n")
	}
	return nil
}

func adminView(v *view, c *cli.Context) error {
	p, err := v.client.GetProfile(v.ctx(), v.userID)
	if err != nil && !errors.Is(err, state.ErrNotFound) {
		return err
	}
	if !state.CanViewAdmin(&p) {
		return errors.New("the admin view requires the admin role")
	}

	admin := state.NewAdmin(v.scope, v.client)
	if id := c.Int64("delete-group"); id > 0 {
		if err := admin.DeleteGroup(v.ctx(), id); err != nil {
			return err
		}
		v.printf("Deleted group #%d\n", id)
	}

	tab := state.ParseAdminTab(c.String("tab"))
	admin.Load(v.userID, tab)
	v.scope.Wait()

	switch tab {
	case state.TabUsers:
		if msg := admin.Users.Err(); msg != "" {
			return errors.New(msg)
		}
		var rows [][]string
		for _, u := range admin.Users.Items() {
			rows = append(rows, []string{u.Profile.ID, u.Profile.DisplayName(), deref(u.Profile.ContactInfo), u.Profile.Role,
				fmt.Sprint(u.Groups), fmt.Sprint(u.AdminGroups), fmt.Sprint(u.Items)})
		}
		v.table("ID\tNAME\tCONTACT\tROLE\tGROUPS\tADMIN OF\tITEMS", rows)
	case state.TabThings, state.TabRequests:
		list := admin.Things
		if tab == state.TabRequests {
			list = admin.Requests
		}
		if msg := list.Err(); msg != "" {
			return errors.New(msg)
		}
		var rows [][]string
		for _, s := range list.Items() {
			rows = append(rows, []string{idString(s.Item.ID), s.Item.Name, s.Item.UserID, yesNo(s.Item.IsPublic), fmt.Sprint(s.Groups)})
		}
		v.table("ID\tNAME\tOWNER\tPUBLIC\tGROUPS", rows)
	default:
		if msg := admin.Groups.Err(); msg != "" {
			return errors.New(msg)
		}
		var rows [][]string
		for _, s := range admin.Groups.Items() {
			rows = append(rows, []string{idString(s.Group.ID), s.Group.Name, yesNo(s.Group.IsPublic),
				fmt.Sprint(s.Members), fmt.Sprint(s.Things), s.Group.InviteLink})
		}
		v.table("ID\tNAME\tPUBLIC\tMEMBERS\tITEMS\tINVITE", rows)
	}
	return nil
}

// openLocation runs the command that renders the view behind an app path
func openLocation(c *cli.Context) error {
	location := c.Args().First()
	r := state.ParseRoute(location)

	var args []string
	switch r.View {
	case state.ViewLibrary:
		args = []string{"things"}
	case state.ViewMyThings:
		args = []string{"mine"}
	case state.ViewThing:
		args = []string{"thing", idString(r.ID)}
	case state.ViewGroups:
		args = []string{"groups"}
	case state.ViewNewGroup:
		args = []string{"create-group", "--help"}
	case state.ViewGroup:
		args = []string{"group", idString(r.ID)}
	case state.ViewJoin:
		args = []string{"join", r.Token}
	case state.ViewUser:
		args = []string{"profile", r.UserID}
	case state.ViewSettings:
		args = []string{"profile"}
	case state.ViewAdmin:
		args = []string{"admin", "--tab", string(r.Tab)}
	default:
		return errors.Errorf("no view at %q", location)
	}

	global := []string{c.App.Name,
		"--api", c.GlobalString("api"),
		"--token-file", c.GlobalString("token-file"),
		"--log-level", c.GlobalString("log-level"),
	}
	return c.App.Run(append(global, args...))
}
