package repository

import (
	"context"
	"errors"

	"contentnode/internal/domain"
)

var (
	// ErrNotFound is returned when no object matches the requested identity
	ErrNotFound = errors.New("object not found")
	// ErrConflict is returned when a save violates a uniqueness constraint
	ErrConflict = errors.New("object conflicts with an existing object")
)

// Filter selects objects of one type. Zero fields match everything.
type Filter struct {
	Type         domain.ObjectType
	NodeID       int
	FolderID     int
	ChannelSetID int
	// Name matches case-insensitively anywhere in the object name
	Name       string
	MasterOnly bool
	Limit      int
	Offset     int
}

// Repository defines the interface for content object persistence
type Repository interface {
	// Read operations. Returned objects are read-only.
	Get(ctx context.Context, t domain.ObjectType, id int) (domain.NodeObject, error)
	GetByGlobalID(ctx context.Context, gid domain.GlobalID) (domain.NodeObject, error)
	List(ctx context.Context, f Filter) ([]domain.NodeObject, error)
	ListInFolder(ctx context.Context, t domain.ObjectType, folderID int) ([]domain.NodeObject, error)

	// ChannelSet returns all variants sharing the channel set
	ChannelSet(ctx context.Context, t domain.ObjectType, channelSetID int) ([]domain.NodeObject, error)

	// Save inserts or updates an editable object, assigning IDs to new
	// objects and their tags
	Save(ctx context.Context, obj domain.NodeObject) error
	Delete(ctx context.Context, t domain.ObjectType, id int) error

	// SetDisinherited replaces the disinherited channels of a channel set
	SetDisinherited(ctx context.Context, t domain.ObjectType, channelSetID int, channels []int) error

	// GroupMembers returns the IDs of the users in the group
	GroupMembers(ctx context.Context, groupID int) ([]int, error)

	// Close releases resources
	Close() error
}
