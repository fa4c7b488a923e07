package domain

import (
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

// SystemUser is a backend user
type SystemUser struct {
	Object
	Login        string `json:"login"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email,omitempty"`
	Description  string `json:"description,omitempty"`
	PasswordHash string `json:"password_hash,omitempty"`
	Active       bool   `json:"active"`
	GroupIDs     []int  `json:"group_ids,omitempty"`
}

// NewSystemUser creates an editable active user
func NewSystemUser(login, firstName, lastName string) *SystemUser {
	return &SystemUser{
		Object:    newObject(),
		Login:     login,
		FirstName: firstName,
		LastName:  lastName,
		Active:    true,
	}
}

func (u *SystemUser) TType() ObjectType { return TypeSystemUser }

func (u *SystemUser) Describe() string { return describe(TypeSystemUser, u.ID, u.Login) }

// Copy returns an editable copy
func (u *SystemUser) Copy() *SystemUser {
	c := *u
	c.Object = u.Object.editableCopy()
	c.GroupIDs = copyInts(u.GroupIDs)
	return &c
}

func (u *SystemUser) CopyObject() NodeObject { return u.Copy() }

// FullName returns first and last name
func (u *SystemUser) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsMemberOf reports direct membership in the group
func (u *SystemUser) IsMemberOf(groupID int) bool { return containsInt(u.GroupIDs, groupID) }

// SetName changes first and last name
func (u *SystemUser) SetName(first, last string) error {
	if err := u.failReadOnly(u); err != nil {
		return err
	}
	u.FirstName = first
	u.LastName = last
	return nil
}

// SetLogin changes the login
func (u *SystemUser) SetLogin(login string) error {
	if err := u.failReadOnly(u); err != nil {
		return err
	}
	u.Login = login
	return nil
}

// SetEmail changes the email address
func (u *SystemUser) SetEmail(email string) error {
	if err := u.failReadOnly(u); err != nil {
		return err
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return fmt.Errorf("invalid email %q: %w", email, err)
		}
	}
	u.Email = email
	return nil
}

// SetDescription changes the description
func (u *SystemUser) SetDescription(desc string) error {
	if err := u.failReadOnly(u); err != nil {
		return err
	}
	u.Description = desc
	return nil
}

// SetActive enables or disables the user
func (u *SystemUser) SetActive(active bool) error {
	if err := u.failReadOnly(u); err != nil {
		return err
	}
	u.Active = active
	return nil
}

// SetPassword stores a bcrypt hash of the password
func (u *SystemUser) SetPassword(plain string) error {
	if err := u.failReadOnly(u); err != nil {
		return err
	}
	if len(plain) < MinPasswordLength {
		return fmt.Errorf("password must have at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares the password against the stored hash
func (u *SystemUser) CheckPassword(plain string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// AddGroup adds a direct group membership
func (u *SystemUser) AddGroup(groupID int) error {
	if err := u.failReadOnly(u); err != nil {
		return err
	}
	if !u.IsMemberOf(groupID) {
		u.GroupIDs = append(u.GroupIDs, groupID)
	}
	return nil
}

// RemoveGroup drops a direct group membership
func (u *SystemUser) RemoveGroup(groupID int) error {
	if err := u.failReadOnly(u); err != nil {
		return err
	}
	out := u.GroupIDs[:0]
	for _, id := range u.GroupIDs {
		if id != groupID {
			out = append(out, id)
		}
	}
	u.GroupIDs = out
	return nil
}

// Validate checks required fields
func (u *SystemUser) Validate() error {
	if strings.TrimSpace(u.Login) == "" {
		return fmt.Errorf("user login required")
	}
	if strings.ContainsAny(u.Login, " \t\n") {
		return fmt.Errorf("login %q must not contain whitespace", u.Login)
	}
	return nil
}

// UserGroup is a node in the group tree
type UserGroup struct {
	Object
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MotherID    int    `json:"mother_id,omitempty"`
	// NodeRestrictions limits the group's permissions to these nodes when set
	NodeRestrictions []int `json:"node_restrictions,omitempty"`
}

// NewUserGroup creates an editable group below the mother group
func NewUserGroup(name string, motherID int) *UserGroup {
	return &UserGroup{
		Object:   newObject(),
		Name:     name,
		MotherID: motherID,
	}
}

func (g *UserGroup) TType() ObjectType { return TypeUserGroup }

func (g *UserGroup) Describe() string { return describe(TypeUserGroup, g.ID, g.Name) }

// Copy returns an editable copy
func (g *UserGroup) Copy() *UserGroup {
	c := *g
	c.Object = g.Object.editableCopy()
	c.NodeRestrictions = copyInts(g.NodeRestrictions)
	return &c
}

func (g *UserGroup) CopyObject() NodeObject { return g.Copy() }

// IsRoot reports whether the group has no mother
func (g *UserGroup) IsRoot() bool { return g.MotherID == 0 }

// IsRestrictedTo reports whether the group may act in the node
func (g *UserGroup) IsRestrictedTo(nodeID int) bool {
	return len(g.NodeRestrictions) == 0 || containsInt(g.NodeRestrictions, nodeID)
}

// SetName changes the name
func (g *UserGroup) SetName(name string) error {
	if err := g.failReadOnly(g); err != nil {
		return err
	}
	g.Name = name
	return nil
}

// SetDescription changes the description
func (g *UserGroup) SetDescription(desc string) error {
	if err := g.failReadOnly(g); err != nil {
		return err
	}
	g.Description = desc
	return nil
}

// SetMotherID moves the group
func (g *UserGroup) SetMotherID(id int) error {
	if err := g.failReadOnly(g); err != nil {
		return err
	}
	if id != 0 && id == g.ID {
		return fmt.Errorf("group %d cannot be its own mother", id)
	}
	g.MotherID = id
	return nil
}

// SetNodeRestrictions replaces the node restrictions
func (g *UserGroup) SetNodeRestrictions(nodeIDs []int) error {
	if err := g.failReadOnly(g); err != nil {
		return err
	}
	g.NodeRestrictions = copyInts(nodeIDs)
	return nil
}

// Validate checks required fields
func (g *UserGroup) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("group name required")
	}
	return nil
}
