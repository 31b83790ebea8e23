package state

import (
	"net/url"
	"strconv"
	"strings"
)

// View names a screen of the routing surface
type View string

const (
	ViewLibrary  View = "library"
	ViewMyThings View = "my-things"
	ViewThing    View = "thing"
	ViewGroups   View = "groups"
	ViewNewGroup View = "new-group"
	ViewGroup    View = "group"
	ViewJoin     View = "join"
	ViewUser     View = "user"
	ViewSettings View = "settings"
	ViewAdmin    View = "admin"
	ViewNotFound View = "not-found"
)

// AdminTab selects a list on the admin view
type AdminTab string

const (
	TabGroups   AdminTab = "groups"
	TabUsers    AdminTab = "users"
	TabThings   AdminTab = "things"
	TabRequests AdminTab = "requests"
)

// ParseAdminTab maps a tab query value to a tab, defaulting to groups
func ParseAdminTab(s string) AdminTab {
	switch t := AdminTab(s); t {
	case TabUsers, TabThings, TabRequests:
		return t
	default:
		return TabGroups
	}
}

// Route is a parsed location
type Route struct {
	View   View
	ID     int64
	UserID string
	Token  string
	Tab    AdminTab
}

// ParseRoute resolves a path with an optional query string
func ParseRoute(location string) Route {
	u, err := url.Parse(location)
	if err != nil {
		return Route{View: ViewNotFound}
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 1 && parts[0] == "" {
		return Route{View: ViewLibrary}
	}

	switch {
	case len(parts) == 1 && parts[0] == "my-things":
		return Route{View: ViewMyThings}
	case len(parts) == 1 && parts[0] == "groups":
		return Route{View: ViewGroups}
	case len(parts) == 1 && parts[0] == "settings":
		return Route{View: ViewSettings}
	case len(parts) == 1 && parts[0] == "admin":
		return Route{View: ViewAdmin, Tab: ParseAdminTab(u.Query().Get("tab"))}
	case len(parts) == 2 && parts[0] == "groups" && parts[1] == "new":
		return Route{View: ViewNewGroup}
	case len(parts) == 2 && parts[0] == "groups":
		if id, ok := parseID(parts[1]); ok {
			return Route{View: ViewGroup, ID: id}
		}
	case len(parts) == 2 && parts[0] == "thing":
		if id, ok := parseID(parts[1]); ok {
			return Route{View: ViewThing, ID: id}
		}
	case len(parts) == 2 && parts[0] == "join" && parts[1] != "":
		return Route{View: ViewJoin, Token: parts[1]}
	case len(parts) == 2 && parts[0] == "user" && parts[1] != "":
		return Route{View: ViewUser, UserID: parts[1]}
	}
	return Route{View: ViewNotFound}
}

// Path renders the route back to a location
func (r Route) Path() string {
	switch r.View {
	case ViewLibrary:
		return "/"
	case ViewMyThings:
		return "/my-things"
	case ViewThing:
		return "/thing/" + strconv.FormatInt(r.ID, 10)
	case ViewGroups:
		return "/groups"
	case ViewNewGroup:
		return "/groups/new"
	case ViewGroup:
		return "/groups/" + strconv.FormatInt(r.ID, 10)
	case ViewJoin:
		return "/join/" + url.PathEscape(r.Token)
	case ViewUser:
		return "/user/" + url.PathEscape(r.UserID)
	case ViewSettings:
		return "/settings"
	case ViewAdmin:
		return "/admin?tab=" + string(ParseAdminTab(string(r.Tab)))
	default:
		return "/404"
	}
}

// SettingsPath is where a user edits their own profile
func SettingsPath(userID string) string {
	return Route{View: ViewUser, UserID: userID}.Path()
}

// InviteLink builds the shareable join link of a group
func InviteLink(origin, token string) string {
	return strings.TrimRight(origin, "/") + Route{View: ViewJoin, Token: token}.Path()
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}
