package main

import (
	"fmt"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/fkhayef/thinglibrary/internal/state"
)

func (v *view) ownerNames(items []state.Item) map[string]string {
	seen := map[string]bool{}
	var ids []string
	for _, it := range items {
		if !seen[it.UserID] {
			seen[it.UserID] = true
			ids = append(ids, it.UserID)
		}
	}
	names := map[string]string{}
	if len(ids) == 0 {
		return names
	}
	profiles, err := v.client.ListProfiles(v.ctx(), ids)
	if err != nil {
		v.log.Debug("owner names unavailable", "error", err)
		return names
	}
	for _, p := range profiles {
		if name := p.DisplayName(); name != "" {
			names[p.ID] = name
		}
	}
	return names
}

func (v *view) printItems(items []state.Item) {
	names := v.ownerNames(items)
	rows := make([][]string, len(items))
	for i, it := range items {
		owner := names[it.UserID]
		if owner == "" {
			owner = state.UnknownOwner
		}
		if it.UserID == v.userID {
			owner = "you"
		}
		rows[i] = []string{idString(it.ID), it.Name, owner, yesNo(it.IsPublic)}
	}
	v.table("ID\tNAME\tOWNER\tPUBLIC", rows)
}

func (v *view) printMarkers(items []state.Item) {
	markers := state.LocationMarkers(v.ctx(), v.client, items)
	if len(markers) == 0 {
		v.printf("No owners with a location\n")
		return
	}
	for _, m := range markers {
		name := m.FullName
		if name == "" {
			name = state.UnknownOwner
		}
		v.printf("%s (%.5f, %.5f)\n", name, m.Latitude, m.Longitude)
		for _, it := range m.Items {
			v.printf("  %d  %s\n", it.ID, it.Name)
		}
	}
}

func listItems(t state.ItemType) func(v *view, c *cli.Context) error {
	return func(v *view, c *cli.Context) error {
		lib := v.library()
		list := lib.Things
		if t == state.TypeRequest {
			list = lib.Requests
		}
		if msg := list.Err(); msg != "" {
			return errors.New(msg)
		}

		items := list.Items()
		if owner := c.String("user"); owner != "" {
			var mine []state.Item
			for _, it := range items {
				if it.UserID == owner {
					mine = append(mine, it)
				}
			}
			items = mine
		}

		if len(items) == 0 {
			v.printf("Nothing here yet\n")
			return nil
		}
		if c.Bool("map") {
			v.printMarkers(items)
			return nil
		}
		v.printItems(items)
		return nil
	}
}

func mine(v *view, c *cli.Context) error {
	lib := v.library()
	list := lib.MyThings
	if c.Bool("requests") {
		list = lib.MyRequests
	}
	if msg := list.Err(); msg != "" {
		return errors.New(msg)
	}

	items := list.Items()
	if len(items) == 0 {
		v.printf("Nothing here yet\n")
		return nil
	}
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	counts := state.SharedCounts(v.ctx(), v.client, ids)

	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = []string{idString(it.ID), it.Name, string(it.Type), yesNo(it.IsPublic), fmt.Sprint(counts[it.ID])}
	}
	v.table("ID\tNAME\tTYPE\tPUBLIC\tGROUPS", rows)
	return nil
}

func showItem(v *view, c *cli.Context) error {
	id, err := argID(c, 0, "item id")
	if err != nil {
		return err
	}
	it, err := v.client.GetItem(v.ctx(), id)
	if err != nil {
		return err
	}

	v.printf("%s #%d (%s)\n", it.Name, it.ID, it.Type)
	if it.Description != nil {
		v.printf("%s\n", *it.Description)
	}
	v.printf("Public: %s\n", yesNo(it.IsPublic))
	if it.Latitude != nil && it.Longitude != nil {
		v.printf("Location: %.5f, %.5f\n", *it.Latitude, *it.Longitude)
	}

	owner := state.OwnerCard(v.ctx(), v.client, it.UserID)
	v.printf("Owner: %s", owner.Name)
	if owner.ContactInfo != "" {
		v.printf(" (%s)", owner.ContactInfo)
	}
	v.printf("\n")

	if it.UserID != v.userID {
		return nil
	}
	lib := v.library()
	shares := state.ItemShares(v.scope, v.client, id)
	shares.Refetch()
	v.scope.Wait()
	if msg := shares.Err(); msg != "" {
		return errors.New(msg)
	}

	v.printf("\nShared with:\n")
	var rows [][]string
	for _, g := range lib.Groups.Items() {
		mark := " "
		if shares.Has(g.ID) {
			mark = "x"
		}
		rows = append(rows, []string{mark, idString(g.ID), g.Name})
	}
	v.table(" \tGROUP\tNAME", rows)
	return nil
}

func addItem(v *view, c *cli.Context) error {
	name := c.String("name")
	if name == "" {
		return errors.New("--name is required")
	}
	groupIDs, err := idList(c.String("groups"), "group id")
	if err != nil {
		return err
	}

	in := state.ItemInput{
		Name:        name,
		Description: optString(c, "description"),
		Type:        state.TypeThing,
		Latitude:    optFloat(c, "lat"),
		Longitude:   optFloat(c, "lng"),
	}
	if c.Bool("request") {
		in.Type = state.TypeRequest
	}
	public := !c.Bool("private")
	in.IsPublic = &public

	lib := state.NewLibrary(v.scope, v.client)
	it, err := lib.Create(v.ctx(), in, groupIDs)
	if it.ID != 0 {
		v.printf("Added %s #%d\n", it.Type, it.ID)
	}
	return err
}

func editItem(v *view, c *cli.Context) error {
	id, err := argID(c, 0, "item id")
	if err != nil {
		return err
	}
	if c.Bool("public") && c.Bool("private") {
		return errors.New("--public and --private are exclusive")
	}

	in := state.ItemUpdate{
		Name:          optString(c, "name"),
		Description:   optString(c, "description"),
		Latitude:      optFloat(c, "lat"),
		Longitude:     optFloat(c, "lng"),
		ClearLocation: c.Bool("clear-location"),
	}
	if c.Bool("public") || c.Bool("private") {
		public := c.Bool("public")
		in.IsPublic = &public
	}

	it, err := state.NewLibrary(v.scope, v.client).Update(v.ctx(), id, in)
	if err != nil {
		return err
	}
	v.printf("Saved %s #%d\n", it.Name, it.ID)
	return nil
}

func removeItem(v *view, c *cli.Context) error {
	id, err := argID(c, 0, "item id")
	if err != nil {
		return err
	}
	if err := state.NewLibrary(v.scope, v.client).Delete(v.ctx(), id); err != nil {
		return err
	}
	v.printf("Deleted #%d\n", id)
	return nil
}

func bulkShare(v *view, c *cli.Context) error {
	if !c.IsSet("groups") {
		return errors.New("--groups is required, pass an empty value to unshare everywhere")
	}
	groupIDs, err := idList(c.String("groups"), "group id")
	if err != nil {
		return err
	}
	ids, err := argIDs(c, 0, "item id")
	if err != nil {
		return err
	}

	sel := state.NewSelection()
	sel.Select(ids...)
	counts, err := state.NewLibrary(v.scope, v.client).BulkEditSharing(v.ctx(), sel, groupIDs)
	if err != nil {
		return err
	}
	v.printf("Updated sharing of %d items, each now shared with %d groups\n", len(counts), counts[ids[0]])
	return nil
}

func bulkRemove(v *view, c *cli.Context) error {
	ids, err := argIDs(c, 0, "item id")
	if err != nil {
		return err
	}

	lib := v.library()
	sel := state.NewSelection()
	sel.Select(ids...)
	n := sel.Len()
	if err := lib.BulkDelete(v.ctx(), sel); err != nil {
		return errors.Wrap(err, "bulk delete stopped")
	}
	v.printf("Deleted %d items\n", n)
	return nil
}
