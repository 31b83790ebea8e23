package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/fkhayef/thinglibrary/internal/state"
)

func (v *view) itemShares(c *cli.Context, allGroups bool) (*state.ShareSet, []int64, error) {
	itemID, err := argID(c, 0, "item id")
	if err != nil {
		return nil, nil, err
	}
	var groupIDs []int64
	if allGroups {
		for _, g := range v.library().Groups.Items() {
			groupIDs = append(groupIDs, g.ID)
		}
	} else if groupIDs, err = argIDs(c, 1, "group id"); err != nil {
		return nil, nil, err
	}

	set := state.ItemShares(v.scope, v.client, itemID)
	set.Refetch()
	v.scope.Wait()
	if msg := set.Err(); msg != "" {
		return nil, nil, errors.New(msg)
	}
	return set, groupIDs, nil
}

func shareItem(v *view, c *cli.Context) error {
	all := c.Bool("all")
	set, groupIDs, err := v.itemShares(c, all)
	if err != nil {
		return err
	}

	switch {
	case all:
		added, err := set.AddAll(v.ctx(), groupIDs)
		if err != nil {
			return err
		}
		if len(added) == 0 {
			v.printf("Already shared with all your groups\n")
			return nil
		}
	case c.Bool("exact"):
		if err := set.SetDesired(v.ctx(), groupIDs); err != nil {
			return err
		}
	default:
		for _, id := range groupIDs {
			if set.Has(id) {
				continue
			}
			if err := set.Toggle(v.ctx(), id); err != nil {
				return err
			}
		}
	}
	v.printf("Shared with groups %s\n", joinIDs(set.IDs()))
	return nil
}

func unshareItem(v *view, c *cli.Context) error {
	set, groupIDs, err := v.itemShares(c, false)
	if err != nil {
		return err
	}
	for _, id := range groupIDs {
		if !set.Has(id) {
			continue
		}
		if err := set.Toggle(v.ctx(), id); err != nil {
			return err
		}
	}
	v.printf("Shared with groups %s\n", joinIDs(set.IDs()))
	return nil
}

func shareAll(v *view, c *cli.Context) error {
	groupID, err := argID(c, 0, "group id")
	if err != nil {
		return err
	}

	lib := v.library()
	list := lib.MyThings
	if c.Bool("requests") {
		list = lib.MyRequests
	}
	candidates := make([]int64, 0, len(list.Items()))
	for _, it := range list.Items() {
		candidates = append(candidates, it.ID)
	}

	set := state.GroupShares(v.scope, v.client, groupID)
	set.Refetch()
	v.scope.Wait()
	if msg := set.Err(); msg != "" {
		return errors.New(msg)
	}

	added, err := set.AddAll(v.ctx(), candidates)
	if err != nil {
		return err
	}
	if len(added) == 0 {
		v.printf("Everything is already shared with this group\n")
		return nil
	}
	v.printf("Shared %d items\n", len(added))
	return nil
}

func joinIDs(ids []int64) string {
	if len(ids) == 0 {
		return "(none)"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = idString(id)
	}
	return strings.Join(parts, ", ")
}

func listGroups(v *view, c *cli.Context) error {
	var groups []state.Group
	if c.Bool("public") {
		var err error
		if groups, err = v.client.ListPublicGroups(v.ctx()); err != nil {
			return err
		}
	} else {
		lib := v.library()
		if msg := lib.Groups.Err(); msg != "" {
			return errors.New(msg)
		}
		groups = lib.Groups.Items()
	}
	if len(groups) == 0 {
		v.printf("No groups\n")
		return nil
	}

	ids := make([]int64, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	counts := state.LoadGroupCounts(v.ctx(), v.client, v.client, ids)

	rows := make([][]string, len(groups))
	for i, g := range groups {
		role := string(g.MyRole)
		if role == "" {
			role = "-"
		}
		rows[i] = []string{idString(g.ID), g.Name, role, fmt.Sprint(counts.Members[g.ID]), fmt.Sprint(counts.Things[g.ID]), yesNo(g.IsPublic)}
	}
	v.table("ID\tNAME\tROLE\tMEMBERS\tITEMS\tPUBLIC", rows)
	return nil
}

func showGroup(v *view, c *cli.Context) error {
	id, err := argID(c, 0, "group id")
	if err != nil {
		return err
	}
	g, err := v.client.GetGroup(v.ctx(), id)
	if err != nil {
		return err
	}

	v.printf("%s #%d\n", g.Name, g.ID)
	if g.Description != nil {
		v.printf("%s\n", *g.Description)
	}
	v.printf("Public: %s\n", yesNo(g.IsPublic))
	if g.MyRole == "" {
		v.printf("You are not a member. Join with `lot join --public %d` if the group is public.\n", g.ID)
		return nil
	}
	v.printf("Your role: %s\n", g.MyRole)

	members, err := v.client.ListMembers(v.ctx(), id)
	if err != nil {
		return err
	}
	v.printf("\nMembers:\n")
	rows := make([][]string, len(members))
	for i, m := range members {
		name := deref(m.FullName)
		if strings.TrimSpace(name) == "" {
			name = state.UnknownOwner
		}
		rows[i] = []string{m.UserID, name, string(m.Role)}
	}
	v.table("USER\tNAME\tROLE", rows)

	shares := state.GroupShares(v.scope, v.client, id)
	shares.Refetch()
	v.scope.Wait()
	itemIDs := shares.IDs()
	v.printf("\nShared items:\n")
	if len(itemIDs) == 0 {
		v.printf("(none)\n")
		return nil
	}
	items, err := v.client.ListItems(v.ctx(), state.ItemQuery{IDs: itemIDs})
	if err != nil {
		return err
	}
	v.printItems(items)
	return nil
}

func createGroup(v *view, c *cli.Context) error {
	name := strings.TrimSpace(c.String("name"))
	if name == "" {
		return errors.New("--name is required")
	}
	if !c.IsSet("lat") || !c.IsSet("lng") {
		return errors.New("--lat and --lng are required")
	}

	lib := state.NewLibrary(v.scope, v.client)
	g, err := lib.CreateGroup(v.ctx(), state.GroupInput{
		Name:        name,
		Description: optString(c, "description"),
		IsPublic:    c.Bool("public"),
		Latitude:    optFloat(c, "lat"),
		Longitude:   optFloat(c, "lng"),
	})
	if err != nil {
		return err
	}
	v.printf("Created group %s #%d\n", g.Name, g.ID)
	if g.InviteLink != "" {
		v.printf("Invite link: %s\n", g.InviteLink)
	}
	return nil
}

func editGroup(v *view, c *cli.Context) error {
	id, err := argID(c, 0, "group id")
	if err != nil {
		return err
	}
	if c.Bool("public") && c.Bool("private") {
		return errors.New("--public and --private are exclusive")
	}

	in := state.GroupUpdate{
		Name:        optString(c, "name"),
		Description: optString(c, "description"),
		Latitude:    optFloat(c, "lat"),
		Longitude:   optFloat(c, "lng"),
	}
	if c.Bool("public") || c.Bool("private") {
		public := c.Bool("public")
		in.IsPublic = &public
	}

	g, err := state.NewLibrary(v.scope, v.client).UpdateGroup(v.ctx(), id, in)
	if err != nil {
		return err
	}
	v.printf("Saved group %s #%d\n", g.Name, g.ID)
	return nil
}

func deleteGroup(v *view, c *cli.Context) error {
	id, err := argID(c, 0, "group id")
	if err != nil {
		return err
	}
	if err := state.NewLibrary(v.scope, v.client).DeleteGroup(v.ctx(), id); err != nil {
		return err
	}
	v.printf("Deleted group #%d\n", id)
	return nil
}

func joinGroup(v *view, c *cli.Context) error {
	arg := strings.TrimSpace(c.Args().First())
	if arg == "" {
		return errors.New("missing invite token or group id")
	}
	lib := state.NewLibrary(v.scope, v.client)

	if c.Bool("public") {
		id, err := parseID(arg, "group id")
		if err != nil {
			return err
		}
		g, err := lib.JoinPublicGroup(v.ctx(), id)
		if err != nil {
			return err
		}
		v.printf("Joined %s\n", g.Name)
		return nil
	}

	preview, err := v.client.GetGroupByInviteToken(v.ctx(), arg)
	if errors.Is(err, state.ErrNotFound) {
		return errors.New("this invite link is invalid or has expired")
	}
	if err != nil {
		return err
	}
	if preview.AlreadyMember {
		v.printf("You are already a member of %s (`lot group %d`)\n", preview.Name, preview.ID)
		return nil
	}

	id, err := lib.JoinByToken(v.ctx(), arg)
	if err != nil {
		return err
	}
	v.printf("Joined %s (`lot group %d`)\n", preview.Name, id)
	return nil
}

func leaveGroup(v *view, c *cli.Context) error {
	id, err := argID(c, 0, "group id")
	if err != nil {
		return err
	}
	if err := state.NewLibrary(v.scope, v.client).LeaveGroup(v.ctx(), id); err != nil {
		return err
	}
	v.printf("Left group #%d\n", id)
	return nil
}

func invite(v *view, c *cli.Context) error {
	id, err := argID(c, 0, "group id")
	if err != nil {
		return err
	}
	g, err := v.client.GetGroup(v.ctx(), id)
	if err != nil {
		return err
	}
	if g.InviteLink == "" {
		return errors.New("only members can see the invite link")
	}
	v.printf("%s\n", g.InviteLink)
	return nil
}

func setRole(v *view, c *cli.Context) error {
	id, err := argID(c, 0, "group id")
	if err != nil {
		return err
	}
	user, role := c.Args().Get(1), state.Role(strings.ToUpper(c.Args().Get(2)))
	if user == "" || (role != state.RoleAdmin && role != state.RoleMember) {
		return errors.New("usage: lot set-role GROUP USER ADMIN|MEMBER")
	}
	m, err := v.client.SetMemberRole(v.ctx(), id, user, role)
	if err != nil {
		return err
	}
	v.printf("%s is now %s\n", m.UserID, m.Role)
	return nil
}

func kick(v *view, c *cli.Context) error {
	id, err := argID(c, 0, "group id")
	if err != nil {
		return err
	}
	user := c.Args().Get(1)
	if user == "" {
		return errors.New("missing user id")
	}
	if err := v.client.RemoveMember(v.ctx(), id, user); err != nil {
		return err
	}
	v.printf("Removed %s from group #%d\n", user, id)
	return nil
}
