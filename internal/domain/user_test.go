package domain

import (
	"errors"
	"testing"
)

func TestSystemUserPassword(t *testing.T) {
	user := NewSystemUser("jdoe", "John", "Doe")

	if err := user.SetPassword("short"); err == nil {
		t.Error("expected short password to be rejected")
	}
	if err := user.SetPassword("correct horse"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if user.PasswordHash == "correct horse" || user.PasswordHash == "" {
		t.Fatal("expected password to be hashed")
	}
	if !user.CheckPassword("correct horse") {
		t.Error("expected password to match")
	}
	if user.CheckPassword("wrong password") {
		t.Error("expected wrong password to fail")
	}

	user.Freeze()
	if err := user.SetPassword("another secret"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestSystemUserGroups(t *testing.T) {
	user := NewSystemUser("jdoe", "John", "Doe")
	_ = user.AddGroup(2)
	_ = user.AddGroup(3)
	_ = user.AddGroup(2)

	if len(user.GroupIDs) != 2 {
		t.Errorf("expected 2 groups, got %v", user.GroupIDs)
	}
	if !user.IsMemberOf(3) {
		t.Error("expected membership in group 3")
	}
	_ = user.RemoveGroup(3)
	if user.IsMemberOf(3) {
		t.Error("expected membership in group 3 to be removed")
	}
}

func TestSystemUserValidate(t *testing.T) {
	user := NewSystemUser("j doe", "John", "Doe")
	if err := user.Validate(); err == nil {
		t.Error("expected login with whitespace to fail")
	}
	if err := user.SetEmail("not-an-address"); err == nil {
		t.Error("expected invalid email to fail")
	}
	if err := user.SetEmail("john@example.com"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if got := user.FullName(); got != "John Doe" {
		t.Errorf("FullName() = %q", got)
	}
}

func TestUserGroup(t *testing.T) {
	group := NewUserGroup("editors", 1)
	group.ID = 4
	if group.IsRoot() {
		t.Error("expected group with mother not to be root")
	}
	if err := group.SetMotherID(4); err == nil {
		t.Error("expected self reference to fail")
	}
	if !group.IsRestrictedTo(7) {
		t.Error("unrestricted group should be allowed everywhere")
	}
	_ = group.SetNodeRestrictions([]int{1, 2})
	if group.IsRestrictedTo(7) {
		t.Error("restricted group should not be allowed in node 7")
	}
}

func TestDatasourceEntries(t *testing.T) {
	ds := NewDatasource("colors", DatasourceStatic)
	if _, err := ds.AddEntry("red", "Red"); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	blue, err := ds.AddEntry("blue", "Blue")
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if blue.DsID != 2 || blue.Sort != 2 {
		t.Errorf("expected dsid/sort 2, got %d/%d", blue.DsID, blue.Sort)
	}
	if _, err := ds.AddEntry("red", "again"); err == nil {
		t.Error("expected duplicate key to fail")
	}

	static := ds.SortedEntries()
	if static[0].Key != "red" {
		t.Errorf("expected insertion order for static datasource, got %s", static[0].Key)
	}

	ds.Type = DatasourceSorted
	sorted := ds.SortedEntries()
	if sorted[0].Key != "blue" {
		t.Errorf("expected key order for sorted datasource, got %s", sorted[0].Key)
	}

	if e, ok := ds.EntryByDsID(1); !ok || e.Key != "red" {
		t.Errorf("EntryByDsID(1) = %+v, %v", e, ok)
	}
	if err := ds.RemoveEntry("red"); err != nil {
		t.Fatalf("RemoveEntry: %v", err)
	}
	if _, ok := ds.Entry("red"); ok {
		t.Error("expected red to be removed")
	}
}

func TestNodeBaseURL(t *testing.T) {
	node := NewNode("site", "example.com")
	if got := node.BaseURL(); got != "http://example.com/" {
		t.Errorf("BaseURL() = %s", got)
	}
	_ = node.SetHTTPS(true)
	_ = node.SetPublishDir("web//site")
	if got := node.BaseURL(); got != "https://example.com/web/site/" {
		t.Errorf("BaseURL() = %s", got)
	}
	if node.IsChannel() {
		t.Error("expected master node")
	}
	channel := NewChannel("channel", "channel.example.com", 1)
	if !channel.IsChannel() {
		t.Error("expected channel")
	}
}
