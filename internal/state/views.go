package state

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
)

// GroupCounts holds member and item counts per group id
type GroupCounts struct {
	Members map[int64]int
	Things  map[int64]int
}

// CountKey is the cache key of an id list: deduplicated, sorted and joined
func CountKey(ids []int64) string {
	unique := uniqueIDs(ids)
	parts := make([]string, len(unique))
	for i, id := range unique {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// LoadGroupCounts counts members and shared items of each group. It is a
// best-effort read: any failure yields empty maps.
func LoadGroupCounts(ctx context.Context, groups GroupStore, shares ShareStore, groupIDs []int64) GroupCounts {
	counts := GroupCounts{Members: map[int64]int{}, Things: map[int64]int{}}
	ids := uniqueIDs(groupIDs)
	if len(ids) == 0 {
		return counts
	}

	members, err := groups.ListMemberships(ctx, MembershipQuery{GroupIDs: ids})
	if err != nil {
		return counts
	}
	rows, err := shares.ListShares(ctx, ShareQuery{GroupIDs: ids})
	if err != nil {
		return counts
	}

	for _, m := range members {
		counts.Members[m.GroupID]++
	}
	for _, sh := range rows {
		counts.Things[sh.GroupID]++
	}
	return counts
}

// Owner is what the item page shows about an item's owner
type Owner struct {
	UserID      string
	Name        string
	ContactInfo string
}

// UnknownOwner is shown when the owner's name cannot be resolved
const UnknownOwner = "Unknown"

// OwnerCard looks up the owner of an item. Failures are silent and fall
// back to an unknown name with no contact info.
func OwnerCard(ctx context.Context, profiles ProfileStore, userID string) Owner {
	card := Owner{UserID: userID, Name: UnknownOwner}
	if userID == "" {
		return card
	}
	p, err := profiles.GetProfile(ctx, userID)
	if err != nil {
		return card
	}
	if name := p.DisplayName(); name != "" {
		card.Name = name
	}
	if p.ContactInfo != nil {
		card.ContactInfo = *p.ContactInfo
	}
	return card
}

// Marker is one owner on the map together with their items
type Marker struct {
	UserID    string
	FullName  string
	Latitude  float64
	Longitude float64
	Items     []Item
}

// LocationMarkers fetches the profiles of the items' owners and returns one
// marker per owner with a usable location, ordered by user id. Failures
// yield no markers.
func LocationMarkers(ctx context.Context, profiles ProfileStore, items []Item) []Marker {
	byOwner := map[string][]Item{}
	for _, it := range items {
		if it.UserID != "" {
			byOwner[it.UserID] = append(byOwner[it.UserID], it)
		}
	}
	if len(byOwner) == 0 {
		return nil
	}

	ids := make([]string, 0, len(byOwner))
	for id := range byOwner {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows, err := profiles.ListProfiles(ctx, ids)
	if err != nil {
		return nil
	}

	var markers []Marker
	for _, p := range rows {
		if p.Latitude == nil || p.Longitude == nil || !finite(*p.Latitude) || !finite(*p.Longitude) {
			continue
		}
		markers = append(markers, Marker{
			UserID:    p.ID,
			FullName:  p.DisplayName(),
			Latitude:  *p.Latitude,
			Longitude: *p.Longitude,
			Items:     byOwner[p.ID],
		})
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].UserID < markers[j].UserID })
	return markers
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func nonBlank(s *string) bool {
	return s != nil && trim(*s) != ""
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
