package share

// Share grants the members of a group visibility into an item
type Share struct {
	ThingID int64
	GroupID int64
}

// Filter narrows a share listing; nil slices do not filter
type Filter struct {
	ThingIDs []int64
	GroupIDs []int64
}
