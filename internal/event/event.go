// Package event describes changes to content objects.
//
// Every change produces one ObjectEvent for the object itself and, for objects
// owning tags, one cascaded event per child tag so that consumers tracking tag
// dependencies see the change as well.
package event

import (
	"fmt"
	"time"

	"contentnode/internal/domain"
)

// Action is the kind of change an event reports
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionLocalize   Action = "localize"
	ActionUnlocalize Action = "unlocalize"
	ActionHide       Action = "hide"
	ActionReveal     Action = "reveal"
	ActionPublish    Action = "publish"
)

var actions = []Action{
	ActionCreate, ActionUpdate, ActionDelete, ActionLocalize,
	ActionUnlocalize, ActionHide, ActionReveal, ActionPublish,
}

// Actions returns all known actions
func Actions() []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// IsValid reports whether the action is known
func (a Action) IsValid() bool {
	for _, known := range actions {
		if a == known {
			return true
		}
	}
	return false
}

// ParseAction returns the action with the given name
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.IsValid() {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}

// ObjectEvent reports a change to one object
type ObjectEvent struct {
	Action    Action            `json:"action"`
	Type      domain.ObjectType `json:"type"`
	ID        int               `json:"id"`
	GlobalID  domain.GlobalID   `json:"globalId,omitempty"`
	ChannelID int               `json:"channelId,omitempty"`
	// Properties names the changed properties, empty means all
	Properties []string `json:"properties,omitempty"`
	// Cascaded is set on events derived from a change of the container
	Cascaded bool `json:"cascaded,omitempty"`
	// ContainerType and ContainerID identify the owner of a cascaded tag event
	ContainerType domain.ObjectType `json:"containerType,omitempty"`
	ContainerID   int               `json:"containerId,omitempty"`
	Time          time.Time         `json:"time"`
}

// Subject returns the message subject for the event below the prefix
func (e ObjectEvent) Subject(prefix string) string {
	subject := fmt.Sprintf("%s.%s", e.Type, e.Action)
	if prefix == "" {
		return subject
	}
	return prefix + "." + subject
}

func (e ObjectEvent) String() string {
	if e.Cascaded {
		return fmt.Sprintf("%s %s %d (via %s %d)", e.Action, e.Type, e.ID, e.ContainerType, e.ContainerID)
	}
	return fmt.Sprintf("%s %s %d", e.Action, e.Type, e.ID)
}

// Cascader is implemented by objects owning tags
type Cascader interface {
	ChildTags() []*domain.Tag
}

// tagAction maps the action of a container to the action of its tags.
// A localized copy gets new tags and unlocalizing deletes them.
func tagAction(action Action) Action {
	switch action {
	case ActionCreate, ActionLocalize:
		return ActionCreate
	case ActionDelete, ActionUnlocalize:
		return ActionDelete
	}
	return ActionUpdate
}

// Trigger returns the event for the object followed by one event per child tag.
// See tagAction for the action of the tag events.
func Trigger(obj domain.NodeObject, action Action, props ...string) []ObjectEvent {
	if obj == nil {
		return nil
	}
	now := time.Now()
	channelID := channelOf(obj)

	events := []ObjectEvent{{
		Action:     action,
		Type:       obj.TType(),
		ID:         obj.GetID(),
		GlobalID:   obj.GetGlobalID(),
		ChannelID:  channelID,
		Properties: props,
		Time:       now,
	}}

	c, ok := obj.(Cascader)
	if !ok {
		return events
	}

	ta := tagAction(action)
	for _, tag := range c.ChildTags() {
		events = append(events, ObjectEvent{
			Action:        ta,
			Type:          tag.TType(),
			ID:            tag.ID,
			GlobalID:      tag.GlobalID,
			ChannelID:     channelID,
			Cascaded:      true,
			ContainerType: obj.TType(),
			ContainerID:   obj.GetID(),
			Time:          now,
		})
	}
	return events
}

func channelOf(obj domain.NodeObject) int {
	if l, ok := domain.AsLocalizable(obj); ok {
		return l.ChannelInfo().ChannelID
	}
	return 0
}
