package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"contentnode/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullToInt converts sql.NullInt64 to int (NULL = 0)
func nullToInt(ni sql.NullInt64) int {
	if ni.Valid {
		return int(ni.Int64)
	}
	return 0
}

// nullToBool converts sql.NullInt64 to bool (0 = false, non-zero = true)
func nullToBool(ni sql.NullInt64) bool {
	return ni.Valid && ni.Int64 != 0
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// intToNull stores 0 as NULL
func intToNull(i int) sql.NullInt64 {
	if i == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(i), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timeToUnix stores the zero time as NULL
func timeToUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new indexed column to the objects table:
// 1. Add field to objectRow struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update objectColumns constant - APPEND to end
// 4. Update indexOf() to extract the value from the entity
// 5. Update objectInsertArgs() and the upsert in store.go
// 6. Add migration in store.go migrate()
// 7. Update relevant tests
//
// CRITICAL: Column order must match between:
// - objectColumns constant
// - scanArgs() return slice
// - All SELECT queries using objectColumns

// ============================================================================
// Object Row Scanner
// ============================================================================

// objectRow holds all columns from an object query for scanning
type objectRow struct {
	ID           int
	TType        int
	GlobalID     string
	Name         sql.NullString
	NodeID       sql.NullInt64
	FolderID     sql.NullInt64
	ChannelSetID sql.NullInt64
	ChannelID    sql.NullInt64
	IsMaster     sql.NullInt64
	DataJSON     sql.NullString
	EditedAt     sql.NullInt64
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match objectColumns order exactly:
// id, ttype, global_id, name, node_id, folder_id, channelset_id,
// channel_id, is_master, data, edited_at
func (r *objectRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,           // 1
		&r.TType,        // 2
		&r.GlobalID,     // 3
		&r.Name,         // 4
		&r.NodeID,       // 5
		&r.FolderID,     // 6
		&r.ChannelSetID, // 7
		&r.ChannelID,    // 8
		&r.IsMaster,     // 9
		&r.DataJSON,     // 10
		&r.EditedAt,     // 11
	}
}

// toDomain decodes the row into a read-only entity. The indexed columns win
// over the JSON document where both carry a value.
func (r *objectRow) toDomain() (domain.NodeObject, error) {
	obj, err := domain.NewEmpty(domain.ObjectType(r.TType))
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSONField(r.DataJSON, obj); err != nil {
		return nil, fmt.Errorf("unmarshal %s %d: %w", obj.TType(), r.ID, err)
	}
	domain.AssignID(obj, r.ID)
	if l, ok := domain.AsLocalizable(obj); ok {
		info := l.ChannelInfo()
		info.ChannelSetID = nullToInt(r.ChannelSetID)
		info.ChannelID = nullToInt(r.ChannelID)
		info.Master = nullToBool(r.IsMaster)
	}
	obj.Freeze()
	return obj, nil
}

// objectColumns returns the SELECT column list for object queries
const objectColumns = `id, ttype, global_id, name, node_id, folder_id, channelset_id,
	channel_id, is_master, data, edited_at`

// ============================================================================
// Object Write Helpers
// ============================================================================

// index holds the values of the filterable columns of an entity
type index struct {
	name         string
	nodeID       int
	folderID     int
	channelSetID int
	channelID    int
	master       bool
}

// indexOf extracts the filterable columns from an entity
func indexOf(obj domain.NodeObject) index {
	var idx index
	if l, ok := domain.AsLocalizable(obj); ok {
		info := l.ChannelInfo()
		idx.nodeID = info.NodeID
		idx.channelSetID = info.ChannelSetID
		idx.channelID = info.ChannelID
		idx.master = info.Master
	}
	switch o := obj.(type) {
	case *domain.Node:
		idx.name = o.Name
		idx.nodeID = o.MasterNodeID
		idx.folderID = o.FolderID
	case *domain.Folder:
		idx.name = o.Name
		idx.folderID = o.MotherID
	case *domain.Page:
		idx.name = o.Name
		idx.folderID = o.FolderID
	case *domain.Template:
		idx.name = o.Name
	case *domain.File:
		idx.name = o.Name
		idx.folderID = o.FolderID
	case *domain.Image:
		idx.name = o.Name
		idx.folderID = o.FolderID
	case *domain.Construct:
		idx.name = o.Keyword
	case *domain.Datasource:
		idx.name = o.Name
	case *domain.SystemUser:
		idx.name = o.Login
	case *domain.UserGroup:
		idx.name = o.Name
		idx.folderID = o.MotherID
	case *domain.ContentLanguage:
		idx.name = o.Code
	case *domain.ObjectTagDefinition:
		idx.name = o.Keyword
	}
	return idx
}

// objectInsertArgs prepares arguments for the object UPSERT
// Returns: id, ttype, global_id, name, node_id, folder_id, channelset_id,
//          channel_id, is_master, data, edited_at
func objectInsertArgs(obj domain.NodeObject, editedAt time.Time) ([]interface{}, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", obj.Describe(), err)
	}
	idx := indexOf(obj)
	return []interface{}{
		obj.GetID(),
		int(obj.TType()),
		string(obj.GetGlobalID()),
		stringToNull(idx.name),
		intToNull(idx.nodeID),
		intToNull(idx.folderID),
		intToNull(idx.channelSetID),
		idx.channelID,
		boolToInt(idx.master),
		string(data),
		timeToUnix(editedAt),
	}, nil
}

// likePattern escapes LIKE wildcards and wraps the term for a substring match
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(term)) + "%"
}
