package share

// ShareRow is the wire form of a share
type ShareRow struct {
	ThingID int64 `json:"thing_id"`
	GroupID int64 `json:"group_id"`
}

// CreateSharesRequest inserts a batch of shares
type CreateSharesRequest struct {
	Shares []ShareRow `json:"shares"`
}

// ReplaceSharesRequest sets the full group set of one item
type ReplaceSharesRequest struct {
	GroupIDs []int64 `json:"group_ids"`
}

// ToRow converts a Share to its wire form
func (s Share) ToRow() ShareRow {
	return ShareRow{ThingID: s.ThingID, GroupID: s.GroupID}
}

// ToRows converts a slice of shares
func ToRows(shares []Share) []ShareRow {
	out := make([]ShareRow, len(shares))
	for i, s := range shares {
		out[i] = s.ToRow()
	}
	return out
}

func fromRows(rows []ShareRow) []Share {
	out := make([]Share, len(rows))
	for i, r := range rows {
		out[i] = Share{ThingID: r.ThingID, GroupID: r.GroupID}
	}
	return out
}
