package channel

import (
	"fmt"

	"contentnode/internal/domain"
)

// Resolve returns the variant of a channel set that is visible in the channel.
// The chain from the channel up to the master node is searched for the first
// variant living there. Inherited variants are hidden when excluded or when
// disinherited for a channel on the way. Channel 0 means the master node.
func Resolve(h *Hierarchy, variants []domain.LocalizableNodeObject, channelID int) (domain.LocalizableNodeObject, error) {
	if len(variants) == 0 {
		return nil, ErrNotVisible
	}
	if channelID == 0 {
		channelID = variants[0].ChannelInfo().NodeID
	}
	byOwner := make(map[int]domain.LocalizableNodeObject, len(variants))
	for _, v := range variants {
		byOwner[v.OwningNodeID()] = v
	}

	chain := h.ChainFor(channelID)
	for i, id := range chain {
		v, ok := byOwner[id]
		if !ok {
			continue
		}
		if i == 0 {
			return v, nil
		}
		if hiddenIn(v, chain[:i]) {
			return nil, fmt.Errorf("%s in channel %d: %w", v.Describe(), channelID, ErrNotVisible)
		}
		return v, nil
	}
	return nil, fmt.Errorf("channel %d: %w", channelID, ErrNotVisible)
}

// hiddenIn reports whether an inherited variant is hidden by one of the channels
// between the requested channel and the channel the variant lives in
func hiddenIn(v domain.LocalizableNodeObject, channels []int) bool {
	d, ok := v.(domain.Disinheritable)
	if !ok {
		return false
	}
	info := d.DisinheritInfo()
	if info.Excluded {
		return true
	}
	for _, c := range channels {
		if info.IsDisinheritedIn(c) {
			return true
		}
	}
	return false
}

// IsVisible reports whether the object can be seen from the channel at all,
// without considering local copies
func IsVisible(h *Hierarchy, obj domain.LocalizableNodeObject, channelID int) bool {
	_, err := Resolve(h, []domain.LocalizableNodeObject{obj}, channelID)
	return err == nil
}

// IsInherited reports whether the object is viewed from a channel other than its own
func IsInherited(obj domain.LocalizableNodeObject, channelID int) bool {
	return obj.IsInherited(channelID)
}

// Localize returns an editable localized copy of the variant for the channel.
// The copy shares the channel set and gets a fresh identity.
func Localize(h *Hierarchy, variants []domain.LocalizableNodeObject, source domain.LocalizableNodeObject, channelID int) (domain.LocalizableNodeObject, error) {
	info := source.ChannelInfo()
	if !h.IsChannelOf(channelID, info.NodeID) {
		return nil, fmt.Errorf("%s: node %d: %w", source.Describe(), channelID, ErrNotChannel)
	}
	for _, v := range variants {
		if v.OwningNodeID() == channelID {
			return nil, fmt.Errorf("%s: channel %d: %w", source.Describe(), channelID, ErrAlreadyLocalized)
		}
	}
	if d, ok := source.(domain.Disinheritable); ok && d.DisinheritInfo().Excluded {
		return nil, fmt.Errorf("%s: %w", source.Describe(), ErrExcluded)
	}

	cp, ok := domain.AsLocalizable(source.CopyObject())
	if !ok {
		return nil, fmt.Errorf("%s cannot be localized", source.Describe())
	}
	domain.ResetIdentity(cp)
	ci := cp.ChannelInfo()
	ci.ChannelID = channelID
	ci.Master = false
	return cp, nil
}

// Unlocalize returns the localized copy to delete from the channel
func Unlocalize(variants []domain.LocalizableNodeObject, channelID int) (domain.LocalizableNodeObject, error) {
	for _, v := range variants {
		if v.OwningNodeID() != channelID {
			continue
		}
		if v.IsMaster() {
			return nil, fmt.Errorf("%s: %w", v.Describe(), ErrMaster)
		}
		return v, nil
	}
	return nil, fmt.Errorf("channel %d: %w", channelID, ErrNotLocalized)
}

// Master returns the master variant of a channel set
func Master(variants []domain.LocalizableNodeObject) (domain.LocalizableNodeObject, bool) {
	for _, v := range variants {
		if v.IsMaster() {
			return v, true
		}
	}
	return nil, false
}

// ValidateDisinherit checks a new list of disinherited channels for the object.
// Channels must be channels of the object's node other than the one it lives in,
// and every channel hiding the parent folder must keep hiding the object.
func ValidateDisinherit(h *Hierarchy, obj domain.Disinheritable, parent *domain.Disinheritance, channels []int) error {
	info := obj.ChannelInfo()
	for _, c := range channels {
		if !h.IsChannelOf(c, info.NodeID) {
			return fmt.Errorf("%s: node %d: %w", obj.Describe(), c, ErrNotChannel)
		}
		if c == obj.OwningNodeID() {
			return fmt.Errorf("%s cannot be disinherited in channel %d it belongs to", obj.Describe(), c)
		}
	}
	if parent == nil {
		return nil
	}
	for _, p := range parent.DisinheritedChannels {
		if !coveredBy(h, p, channels) {
			return fmt.Errorf("%s must stay disinherited in channel %d where its parent is disinherited", obj.Describe(), p)
		}
	}
	return nil
}

// coveredBy reports whether the channel or one of its masters is in the list
func coveredBy(h *Hierarchy, channelID int, channels []int) bool {
	for _, id := range h.ChainFor(channelID) {
		for _, c := range channels {
			if c == id {
				return true
			}
		}
	}
	return false
}

// DisinheritedIn expands the disinherited channels with their sub-channels
func DisinheritedIn(h *Hierarchy, d *domain.Disinheritance) []int {
	seen := map[int]bool{}
	var out []int
	for _, c := range d.DisinheritedChannels {
		for _, id := range append([]int{c}, h.SubChannels(c)...) {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
