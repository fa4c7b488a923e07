package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"contentnode/internal/domain"
	"contentnode/internal/repository"
)

var _ repository.Repository = (*Store)(nil)

// Store implements repository.Repository on SQLite or PostgreSQL
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New creates a SQLite store at dbPath (":memory:" for tests)
func New(dbPath string) (*Store, error) {
	return Open(DialectSQLite, dbPath)
}

// Open connects to the database and migrates the schema
func Open(dialect Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == DialectSQLite {
		// a single connection keeps :memory: databases intact and serializes writers
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{
			"PRAGMA busy_timeout = 5000",
			"PRAGMA journal_mode = WAL",
			"PRAGMA foreign_keys = ON",
		} {
			if _, err := db.Exec(pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("failed to set %q: %w", pragma, err)
			}
		}
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS objects (
		id BIGINT NOT NULL,
		ttype INTEGER NOT NULL,
		global_id TEXT NOT NULL,
		name TEXT,
		node_id BIGINT,
		folder_id BIGINT,
		channelset_id BIGINT,
		channel_id BIGINT NOT NULL DEFAULT 0,
		is_master INTEGER NOT NULL DEFAULT 1,
		data TEXT NOT NULL,
		edited_at BIGINT,
		PRIMARY KEY (ttype, id)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_objects_global_id ON objects(global_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_objects_variant
		ON objects(ttype, channelset_id, channel_id) WHERE channelset_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_objects_folder ON objects(ttype, folder_id)`,
	`CREATE INDEX IF NOT EXISTS idx_objects_node ON objects(ttype, node_id)`,

	`CREATE TABLE IF NOT EXISTS disinherited_channels (
		ttype INTEGER NOT NULL,
		channelset_id BIGINT NOT NULL,
		channel_id BIGINT NOT NULL,
		PRIMARY KEY (ttype, channelset_id, channel_id)
	)`,

	`CREATE TABLE IF NOT EXISTS group_members (
		group_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL,
		PRIMARY KEY (group_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members(user_id)`,

	`CREATE TABLE IF NOT EXISTS sequences (
		name TEXT PRIMARY KEY,
		last_id BIGINT NOT NULL
	)`,
}

func (s *Store) migrate() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Dialect returns the SQL dialect of the store
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// ============================================================================
// Read operations
// ============================================================================

// Get returns the object with the given type and local ID
func (s *Store) Get(ctx context.Context, t domain.ObjectType, id int) (domain.NodeObject, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT `+objectColumns+` FROM objects WHERE ttype = ? AND id = ?
	`), int(t), id)

	obj, err := s.scanObject(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %d: %w", t, id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", t, id, err)
	}
	return obj, nil
}

// GetByGlobalID returns the object with the given global ID
func (s *Store) GetByGlobalID(ctx context.Context, gid domain.GlobalID) (domain.NodeObject, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT `+objectColumns+` FROM objects WHERE global_id = ?
	`), string(gid))

	obj, err := s.scanObject(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("global id %s: %w", gid, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", gid, err)
	}
	return obj, nil
}

// List returns the objects matching the filter ordered by type and ID
func (s *Store) List(ctx context.Context, f repository.Filter) ([]domain.NodeObject, error) {
	var where []string
	var args []interface{}

	if f.Type != 0 {
		where = append(where, "ttype = ?")
		args = append(args, int(f.Type))
	}
	if f.NodeID != 0 {
		where = append(where, "node_id = ?")
		args = append(args, f.NodeID)
	}
	if f.FolderID != 0 {
		where = append(where, "folder_id = ?")
		args = append(args, f.FolderID)
	}
	if f.ChannelSetID != 0 {
		where = append(where, "channelset_id = ?")
		args = append(args, f.ChannelSetID)
	}
	if f.Name != "" {
		where = append(where, `LOWER(name) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.Name))
	}
	if f.MasterOnly {
		where = append(where, "is_master = 1")
	}

	query := `SELECT ` + objectColumns + ` FROM objects`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY ttype, id`
	limit, limitArgs := s.dialect.limitClause(f.Limit, f.Offset)
	query += limit
	args = append(args, limitArgs...)

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	var scanned []objectRow
	for rows.Next() {
		var r objectRow
		if err := rows.Scan(r.scanArgs()...); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan object: %w", err)
		}
		scanned = append(scanned, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	rows.Close()

	// decorating runs further queries, so the cursor must be closed first
	objects := make([]domain.NodeObject, 0, len(scanned))
	for i := range scanned {
		obj, err := scanned[i].toDomain()
		if err != nil {
			return nil, err
		}
		if err := s.decorate(ctx, obj); err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// ListInFolder returns the objects of the type directly inside the folder
func (s *Store) ListInFolder(ctx context.Context, t domain.ObjectType, folderID int) ([]domain.NodeObject, error) {
	return s.List(ctx, repository.Filter{Type: t, FolderID: folderID})
}

// ChannelSet returns the master and all localized copies of a channel set
func (s *Store) ChannelSet(ctx context.Context, t domain.ObjectType, channelSetID int) ([]domain.NodeObject, error) {
	if channelSetID == 0 {
		return nil, nil
	}
	return s.List(ctx, repository.Filter{Type: t, ChannelSetID: channelSetID})
}

// GroupMembers returns the IDs of the users in the group
func (s *Store) GroupMembers(ctx context.Context, groupID int) ([]int, error) {
	return s.queryInts(ctx, `SELECT user_id FROM group_members WHERE group_id = ? ORDER BY user_id`, groupID)
}

func (s *Store) scanObject(ctx context.Context, row *sql.Row) (domain.NodeObject, error) {
	var r objectRow
	if err := row.Scan(r.scanArgs()...); err != nil {
		return nil, err
	}
	obj, err := r.toDomain()
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// decorate fills in the data kept outside the JSON document
func (s *Store) decorate(ctx context.Context, obj domain.NodeObject) error {
	if d, ok := domain.AsDisinheritable(obj); ok {
		setID := d.ChannelInfo().ChannelSetID
		if setID != 0 {
			channels, err := s.queryInts(ctx, `
				SELECT channel_id FROM disinherited_channels
				WHERE ttype = ? AND channelset_id = ? ORDER BY channel_id
			`, int(obj.TType()), setID)
			if err != nil {
				return fmt.Errorf("failed to load disinherited channels: %w", err)
			}
			d.DisinheritInfo().DisinheritedChannels = channels
		}
	}
	if u, ok := obj.(*domain.SystemUser); ok {
		groups, err := s.queryInts(ctx, `SELECT group_id FROM group_members WHERE user_id = ? ORDER BY group_id`, u.ID)
		if err != nil {
			return fmt.Errorf("failed to load groups of %s: %w", u.Describe(), err)
		}
		u.GroupIDs = groups
	}
	return nil
}

func (s *Store) queryInts(ctx context.Context, query string, args ...interface{}) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ============================================================================
// Write operations
// ============================================================================

// Save inserts or updates an editable object. New objects (ID 0) get the
// next ID of their type; localizable objects without a channel set start a
// new one. Tags, values, parts and datasource entries get IDs as well.
func (s *Store) Save(ctx context.Context, obj domain.NodeObject) error {
	if err := domain.CheckEditable(obj); err != nil {
		return err
	}
	if !domain.IsStandalone(obj.TType()) {
		return fmt.Errorf("%s is not stored as a standalone object", obj.TType())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	domain.EnsureGlobalID(obj)
	if err := s.assignID(ctx, tx, obj); err != nil {
		return err
	}
	if l, ok := domain.AsLocalizable(obj); ok && l.ChannelInfo().ChannelSetID == 0 {
		setID, err := s.nextID(ctx, tx, "channelset")
		if err != nil {
			return err
		}
		l.ChannelInfo().ChannelSetID = setID
	}
	if err := s.assignChildIDs(ctx, tx, obj); err != nil {
		return err
	}

	args, err := objectInsertArgs(obj, domain.EditTime(obj))
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO objects (`+objectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ttype, id) DO UPDATE SET
			global_id = excluded.global_id,
			name = excluded.name,
			node_id = excluded.node_id,
			folder_id = excluded.folder_id,
			channelset_id = excluded.channelset_id,
			channel_id = excluded.channel_id,
			is_master = excluded.is_master,
			data = excluded.data,
			edited_at = excluded.edited_at
	`), args...)
	if isUniqueViolation(err) {
		return fmt.Errorf("failed to save %s: %w", obj.Describe(), repository.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", obj.Describe(), err)
	}

	// the disinherited channels belong to the channel set and are written by its master
	if d, ok := domain.AsDisinheritable(obj); ok && d.IsMaster() {
		info := d.ChannelInfo()
		if err := s.replaceDisinherited(ctx, tx, obj.TType(), info.ChannelSetID, d.DisinheritInfo().DisinheritedChannels); err != nil {
			return err
		}
	}
	if u, ok := obj.(*domain.SystemUser); ok {
		if err := s.replaceGroups(ctx, tx, u.ID, u.GroupIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Delete removes a single object. The disinherited channels of its channel
// set are removed together with the last variant.
func (s *Store) Delete(ctx context.Context, t domain.ObjectType, id int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var setID sql.NullInt64
	err = tx.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT channelset_id FROM objects WHERE ttype = ? AND id = ?
	`), int(t), id).Scan(&setID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", t, id, repository.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", t, id, err)
	}

	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM objects WHERE ttype = ? AND id = ?`), int(t), id); err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", t, id, err)
	}

	if setID.Valid {
		var remaining int
		err := tx.QueryRowContext(ctx, s.dialect.rebind(`
			SELECT COUNT(*) FROM objects WHERE ttype = ? AND channelset_id = ?
		`), int(t), setID.Int64).Scan(&remaining)
		if err != nil {
			return fmt.Errorf("failed to count channel set: %w", err)
		}
		if remaining == 0 {
			if err := s.replaceDisinherited(ctx, tx, t, int(setID.Int64), nil); err != nil {
				return err
			}
		}
	}

	switch t {
	case domain.TypeSystemUser:
		_, err = tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM group_members WHERE user_id = ?`), id)
	case domain.TypeUserGroup:
		_, err = tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM group_members WHERE group_id = ?`), id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete memberships: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// SetDisinherited replaces the disinherited channels of a channel set
func (s *Store) SetDisinherited(ctx context.Context, t domain.ObjectType, channelSetID int, channels []int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT COUNT(*) FROM objects WHERE ttype = ? AND channelset_id = ?
	`), int(t), channelSetID).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to look up channel set: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%s channel set %d: %w", t, channelSetID, repository.ErrNotFound)
	}

	if err := s.replaceDisinherited(ctx, tx, t, channelSetID, channels); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *Store) replaceDisinherited(ctx context.Context, tx *sql.Tx, t domain.ObjectType, channelSetID int, channels []int) error {
	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`
		DELETE FROM disinherited_channels WHERE ttype = ? AND channelset_id = ?
	`), int(t), channelSetID); err != nil {
		return fmt.Errorf("failed to clear disinherited channels: %w", err)
	}

	if len(channels) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(`
		INSERT INTO disinherited_channels (ttype, channelset_id, channel_id) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare disinherit statement: %w", err)
	}
	defer stmt.Close()

	for _, channelID := range channels {
		if _, err := stmt.ExecContext(ctx, int(t), channelSetID, channelID); err != nil {
			return fmt.Errorf("failed to disinherit channel %d: %w", channelID, err)
		}
	}
	return nil
}

func (s *Store) replaceGroups(ctx context.Context, tx *sql.Tx, userID int, groups []int) error {
	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM group_members WHERE user_id = ?`), userID); err != nil {
		return fmt.Errorf("failed to clear group memberships: %w", err)
	}

	if len(groups) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(`
		INSERT INTO group_members (group_id, user_id) VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare membership statement: %w", err)
	}
	defer stmt.Close()

	for _, groupID := range groups {
		if _, err := stmt.ExecContext(ctx, groupID, userID); err != nil {
			return fmt.Errorf("failed to add user %d to group %d: %w", userID, groupID, err)
		}
	}
	return nil
}

// ============================================================================
// ID assignment
// ============================================================================

// nextID increments and returns the named sequence
func (s *Store) nextID(ctx context.Context, tx *sql.Tx, name string) (int, error) {
	var id int
	err := tx.QueryRowContext(ctx, s.dialect.rebind(`
		INSERT INTO sequences (name, last_id) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET last_id = sequences.last_id + 1
		RETURNING last_id
	`), name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", name, err)
	}
	return id, nil
}

// reserveID moves the named sequence past an externally assigned ID
func (s *Store) reserveID(ctx context.Context, tx *sql.Tx, name string, id int) error {
	_, err := tx.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO sequences (name, last_id) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET last_id = CASE
			WHEN sequences.last_id < excluded.last_id THEN excluded.last_id
			ELSE sequences.last_id END
	`), name, id)
	if err != nil {
		return fmt.Errorf("failed to reserve %s id %d: %w", name, id, err)
	}
	return nil
}

func (s *Store) assignID(ctx context.Context, tx *sql.Tx, obj domain.NodeObject) error {
	name := obj.TType().String()
	if obj.GetID() != 0 {
		return s.reserveID(ctx, tx, name, obj.GetID())
	}
	id, err := s.nextID(ctx, tx, name)
	if err != nil {
		return err
	}
	domain.AssignID(obj, id)
	return nil
}

func (s *Store) assignChildIDs(ctx context.Context, tx *sql.Tx, obj domain.NodeObject) error {
	switch o := obj.(type) {
	case *domain.Construct:
		for _, p := range o.Parts {
			if err := s.assignChild(ctx, tx, p); err != nil {
				return err
			}
			p.ConstructID = o.ID
		}
	case *domain.Datasource:
		for _, e := range o.Entries {
			if err := s.assignChild(ctx, tx, e); err != nil {
				return err
			}
			e.DatasourceID = o.ID
		}
	}

	c, ok := obj.(domain.TagContainer)
	if !ok {
		return nil
	}
	for _, tag := range c.ChildTags() {
		if err := s.assignChild(ctx, tx, tag); err != nil {
			return err
		}
		tag.ContainerType = obj.TType()
		tag.ContainerID = obj.GetID()
		for _, kw := range tag.ValueKeywords() {
			if err := s.assignChild(ctx, tx, tag.Values[kw]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) assignChild(ctx context.Context, tx *sql.Tx, child domain.NodeObject) error {
	domain.EnsureGlobalID(child)
	if child.GetID() != 0 {
		return nil
	}
	return s.assignID(ctx, tx, child)
}

// Close releases the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
