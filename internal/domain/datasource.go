package domain

import (
	"fmt"
	"sort"
	"strings"
)

// DatasourceType selects how entries are maintained
type DatasourceType string

const (
	DatasourceStatic DatasourceType = "STATIC"
	DatasourceSorted DatasourceType = "SORTED"
)

// Datasource is a named list of key/value entries used by select parts
type Datasource struct {
	Object
	Name    string             `json:"name"`
	Type    DatasourceType     `json:"type"`
	Entries []*DatasourceEntry `json:"entries,omitempty"`
}

// NewDatasource creates an editable datasource
func NewDatasource(name string, dsType DatasourceType) *Datasource {
	return &Datasource{
		Object: newObject(),
		Name:   name,
		Type:   dsType,
	}
}

func (d *Datasource) TType() ObjectType { return TypeDatasource }

func (d *Datasource) Describe() string { return describe(TypeDatasource, d.ID, d.Name) }

// Freeze marks the datasource and its entries read-only
func (d *Datasource) Freeze() {
	d.Object.Freeze()
	for _, e := range d.Entries {
		e.Freeze()
	}
}

// Copy returns an editable deep copy
func (d *Datasource) Copy() *Datasource {
	c := *d
	c.Object = d.Object.editableCopy()
	c.Entries = make([]*DatasourceEntry, len(d.Entries))
	for i, e := range d.Entries {
		c.Entries[i] = e.Copy()
	}
	return &c
}

func (d *Datasource) CopyObject() NodeObject { return d.Copy() }

// Entry returns the entry with the given key
func (d *Datasource) Entry(key string) (*DatasourceEntry, bool) {
	for _, e := range d.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return nil, false
}

// EntryByDsID returns the entry with the given dsid
func (d *Datasource) EntryByDsID(dsID int) (*DatasourceEntry, bool) {
	for _, e := range d.Entries {
		if e.DsID == dsID {
			return e, true
		}
	}
	return nil, false
}

// SortedEntries returns entries by sort order, or by key for sorted datasources
func (d *Datasource) SortedEntries() []*DatasourceEntry {
	out := make([]*DatasourceEntry, len(d.Entries))
	copy(out, d.Entries)
	if d.Type == DatasourceSorted {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sort < out[j].Sort })
	return out
}

// SetName changes the name
func (d *Datasource) SetName(name string) error {
	if err := d.failReadOnly(d); err != nil {
		return err
	}
	d.Name = name
	return nil
}

// AddEntry appends an entry with the next dsid and sort order
func (d *Datasource) AddEntry(key, value string) (*DatasourceEntry, error) {
	if err := d.failReadOnly(d); err != nil {
		return nil, err
	}
	if _, exists := d.Entry(key); exists {
		return nil, fmt.Errorf("datasource %s already has key %q", d.Name, key)
	}
	maxID, maxSort := 0, 0
	for _, e := range d.Entries {
		if e.DsID > maxID {
			maxID = e.DsID
		}
		if e.Sort > maxSort {
			maxSort = e.Sort
		}
	}
	e := &DatasourceEntry{
		Object:       newObject(),
		DatasourceID: d.ID,
		DsID:         maxID + 1,
		Key:          key,
		Value:        value,
		Sort:         maxSort + 1,
	}
	d.Entries = append(d.Entries, e)
	return e, nil
}

// RemoveEntry drops the entry with the key
func (d *Datasource) RemoveEntry(key string) error {
	if err := d.failReadOnly(d); err != nil {
		return err
	}
	for i, e := range d.Entries {
		if e.Key == key {
			d.Entries = append(d.Entries[:i], d.Entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("datasource %s has no key %q", d.Name, key)
}

// Validate checks name and unique keys
func (d *Datasource) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("datasource name required")
	}
	seen := make(map[string]bool, len(d.Entries))
	for _, e := range d.Entries {
		if seen[e.Key] {
			return fmt.Errorf("datasource %s: duplicate key %q", d.Name, e.Key)
		}
		seen[e.Key] = true
	}
	return nil
}

// DatasourceEntry is one key/value pair
type DatasourceEntry struct {
	Object
	DatasourceID int    `json:"datasource_id"`
	DsID         int    `json:"dsid"`
	Key          string `json:"key"`
	Value        string `json:"value"`
	Sort         int    `json:"sort"`
}

func (e *DatasourceEntry) TType() ObjectType { return TypeDatasourceEntry }

func (e *DatasourceEntry) Describe() string { return describe(TypeDatasourceEntry, e.ID, e.Key) }

// Copy returns an editable copy
func (e *DatasourceEntry) Copy() *DatasourceEntry {
	c := *e
	c.Object = e.Object.editableCopy()
	return &c
}

func (e *DatasourceEntry) CopyObject() NodeObject { return e.Copy() }

// SetValue changes the value
func (e *DatasourceEntry) SetValue(value string) error {
	if err := e.failReadOnly(e); err != nil {
		return err
	}
	e.Value = value
	return nil
}
