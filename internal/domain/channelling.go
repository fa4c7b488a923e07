package domain

// Channelling records where a variant of a multichannelled object lives.
// ChannelID 0 means the master node of the channel hierarchy.
type Channelling struct {
	ChannelSetID int  `json:"channelset_id"`
	ChannelID    int  `json:"channel_id"`
	Master       bool `json:"master"`
	// NodeID is the master node the object's folder tree belongs to
	NodeID int `json:"node_id"`
}

// ChannelInfo exposes the channelling block
func (c *Channelling) ChannelInfo() *Channelling { return c }

// IsMaster reports whether this variant is the master
func (c *Channelling) IsMaster() bool { return c.Master }

// IsLocalized reports whether this variant is a localized copy of a master
func (c *Channelling) IsLocalized() bool { return !c.Master }

// IsInherited reports whether the variant is seen from a channel other than
// its own. Without a channel (0) every variant is seen where it lives.
func (c *Channelling) IsInherited(channelID int) bool {
	if channelID == 0 {
		return false
	}
	return c.OwningNodeID() != channelID
}

// OwningNodeID returns the node or channel holding this variant
func (c *Channelling) OwningNodeID() int {
	if c.ChannelID != 0 {
		return c.ChannelID
	}
	return c.NodeID
}

// LocalizableNodeObject is implemented by objects that have channel variants
type LocalizableNodeObject interface {
	NodeObject
	ChannelInfo() *Channelling
	IsMaster() bool
	IsInherited(channelID int) bool
	OwningNodeID() int
}

// Disinheritance controls in which channels an inherited object is hidden
type Disinheritance struct {
	// Excluded objects are only visible in the channel they live in
	Excluded bool `json:"excluded"`
	// DisinheritDefault makes new channels start out disinherited
	DisinheritDefault bool `json:"disinherit_default"`
	// DisinheritedChannels lists channels (and implicitly their sub-channels) hiding the object
	DisinheritedChannels []int `json:"disinherited_channels,omitempty"`
}

// DisinheritInfo exposes the disinheritance block
func (d *Disinheritance) DisinheritInfo() *Disinheritance { return d }

// IsDisinheritedIn reports whether the channel is listed explicitly
func (d *Disinheritance) IsDisinheritedIn(channelID int) bool {
	return containsInt(d.DisinheritedChannels, channelID)
}

func (d Disinheritance) clone() Disinheritance {
	d.DisinheritedChannels = copyInts(d.DisinheritedChannels)
	return d
}

// Disinheritable is implemented by objects that can be hidden from channels
type Disinheritable interface {
	LocalizableNodeObject
	DisinheritInfo() *Disinheritance
}

// SetExcluded changes the excluded flag of an editable object
func SetExcluded(obj Disinheritable, excluded bool) error {
	if err := CheckEditable(obj); err != nil {
		return err
	}
	obj.DisinheritInfo().Excluded = excluded
	return nil
}

// SetDisinheritDefault changes the default disinheritance of an editable object
func SetDisinheritDefault(obj Disinheritable, value bool) error {
	if err := CheckEditable(obj); err != nil {
		return err
	}
	obj.DisinheritInfo().DisinheritDefault = value
	return nil
}

// SetDisinheritedChannels replaces the disinherited channel list of an editable object
func SetDisinheritedChannels(obj Disinheritable, channels []int) error {
	if err := CheckEditable(obj); err != nil {
		return err
	}
	obj.DisinheritInfo().DisinheritedChannels = copyInts(channels)
	return nil
}
