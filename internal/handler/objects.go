package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"contentnode/internal/domain"
	"contentnode/internal/repository"
	"contentnode/internal/restmodel"
)

// ListResponse wraps listed objects
type ListResponse struct {
	Items    []any `json:"items"`
	NumItems int   `json:"numItems"`
}

// List returns the objects of the type visible in the requested channel.
// Supported filters are folder, node, q (name), limit and offset.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	t, err := pathType(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, _, err := channelContext(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	f := repository.Filter{Type: t, Name: r.URL.Query().Get("q")}
	for name, dst := range map[string]*int{
		"folder": &f.FolderID,
		"node":   &f.NodeID,
		"limit":  &f.Limit,
		"offset": &f.Offset,
	} {
		if *dst, err = queryInt(r, name); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	objs, err := h.objects.List(ctx, f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.toREST(ctx, objs, fill(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, ListResponse{Items: items, NumItems: len(items)}, http.StatusOK)
}

// Get returns one object as seen from the requested channel. The id may
// also be a global ID.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := pathType(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, _, err := channelContext(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var obj domain.NodeObject
	if id, convErr := strconv.Atoi(r.PathValue("id")); convErr == nil {
		if id <= 0 {
			h.writeError(w, r, badRequest("invalid id %q", r.PathValue("id")))
			return
		}
		obj, err = h.objects.Load(ctx, t, id)
	} else {
		gid := domain.GlobalID(r.PathValue("id"))
		if !gid.IsValid() {
			h.writeError(w, r, badRequest("invalid id %q", gid))
			return
		}
		obj, err = h.objects.LoadByGlobalID(ctx, gid)
		if err == nil && obj.TType() != t {
			err = badRequest("%s is not a %s", obj.Describe(), t)
		}
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeObject(w, ctx, obj, http.StatusOK, fill(r)...)
}

// Create creates an object from its REST model
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	t, err := pathType(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, r, badRequest("failed to read body: %v", err))
		return
	}

	obj, err := h.create(r.Context(), t, body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	stored, err := h.objects.Load(r.Context(), t, obj.GetID())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeObject(w, r.Context(), stored, http.StatusCreated)
}

// Update applies the non-zero fields of the REST model to the object
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	t, id, err := pathObject(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, r, badRequest("failed to read body: %v", err))
		return
	}
	apply, err := applier(t, body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var updated domain.NodeObject
	if t == domain.TypeSystemUser {
		updated, err = h.users.Update(r.Context(), id, apply)
	} else {
		updated, err = h.objects.Update(r.Context(), t, id, apply)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeObject(w, r.Context(), updated, http.StatusOK)
}

// Delete removes the object; files and images lose their binary content too
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	t, id, err := pathObject(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.files != nil && (t == domain.TypeFile || t == domain.TypeImage) {
		err = h.files.Delete(r.Context(), t, id)
	} else {
		err = h.objects.Delete(r.Context(), t, id)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeObject(w http.ResponseWriter, ctx context.Context, obj domain.NodeObject, status int, fill ...restmodel.Fill) {
	rest, err := h.transformer.ToREST(ctx, obj, fill...)
	if err != nil {
		h.writeJSON(w, ErrorResponse{Error: http.StatusText(http.StatusInternalServerError), Details: err.Error()}, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, rest, status)
}

func (h *Handler) toREST(ctx context.Context, objs []domain.NodeObject, fill []restmodel.Fill) ([]any, error) {
	items := make([]any, 0, len(objs))
	for _, obj := range objs {
		rest, err := h.transformer.ToREST(ctx, obj, fill...)
		if err != nil {
			return nil, err
		}
		items = append(items, rest)
	}
	return items, nil
}

// ============================================================================
// REST model decoding
// ============================================================================

func unmarshal(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

// applier decodes the REST model of the type and returns a function applying
// it to an editable object
func applier(t domain.ObjectType, body []byte) (func(domain.NodeObject) error, error) {
	switch t {
	case domain.TypePage:
		var rest restmodel.Page
		if err := unmarshal(body, &rest); err != nil {
			return nil, err
		}
		return func(obj domain.NodeObject) error { return restmodel.ApplyPage(&rest, obj.(*domain.Page)) }, nil
	case domain.TypeFolder:
		var rest restmodel.Folder
		if err := unmarshal(body, &rest); err != nil {
			return nil, err
		}
		return func(obj domain.NodeObject) error { return restmodel.ApplyFolder(&rest, obj.(*domain.Folder)) }, nil
	case domain.TypeTemplate:
		var rest restmodel.Template
		if err := unmarshal(body, &rest); err != nil {
			return nil, err
		}
		return func(obj domain.NodeObject) error { return restmodel.ApplyTemplate(&rest, obj.(*domain.Template)) }, nil
	case domain.TypeFile:
		var rest restmodel.File
		if err := unmarshal(body, &rest); err != nil {
			return nil, err
		}
		return func(obj domain.NodeObject) error { return restmodel.ApplyFile(&rest, obj.(*domain.File)) }, nil
	case domain.TypeImage:
		var rest restmodel.Image
		if err := unmarshal(body, &rest); err != nil {
			return nil, err
		}
		return func(obj domain.NodeObject) error { return restmodel.ApplyImage(&rest, obj.(*domain.Image)) }, nil
	case domain.TypeNode:
		var rest restmodel.Node
		if err := unmarshal(body, &rest); err != nil {
			return nil, err
		}
		return func(obj domain.NodeObject) error { return restmodel.ApplyNode(&rest, obj.(*domain.Node)) }, nil
	case domain.TypeSystemUser:
		var rest restmodel.User
		if err := unmarshal(body, &rest); err != nil {
			return nil, err
		}
		return func(obj domain.NodeObject) error { return restmodel.ApplyUser(&rest, obj.(*domain.SystemUser)) }, nil
	case domain.TypeUserGroup:
		var rest restmodel.Group
		if err := unmarshal(body, &rest); err != nil {
			return nil, err
		}
		return func(obj domain.NodeObject) error { return restmodel.ApplyGroup(&rest, obj.(*domain.UserGroup)) }, nil
	}
	return nil, errNotWritable
}

// createFields are the fields needed to construct a new object
type createFields struct {
	Name         string `json:"name"`
	Host         string `json:"host"`
	Login        string `json:"login"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Password     string `json:"password"`
	FolderID     int    `json:"folderId"`
	MotherID     int    `json:"motherId"`
	TemplateID   int    `json:"templateId"`
	NodeID       int    `json:"nodeId"`
	MasterNodeID int    `json:"masterNodeId"`
}

// create constructs, fills and stores a new object
func (h *Handler) create(ctx context.Context, t domain.ObjectType, body []byte) (domain.NodeObject, error) {
	apply, err := applier(t, body)
	if err != nil {
		return nil, err
	}
	var f createFields
	if err := unmarshal(body, &f); err != nil {
		return nil, err
	}

	var obj domain.NodeObject
	switch t {
	case domain.TypePage, domain.TypeFile, domain.TypeImage:
		nodeID, err := h.nodeOfFolder(ctx, f.FolderID)
		if err != nil {
			return nil, err
		}
		switch t {
		case domain.TypePage:
			obj = domain.NewPage(f.Name, f.FolderID, f.TemplateID, nodeID)
		case domain.TypeFile:
			obj = domain.NewFile(f.Name, f.FolderID, nodeID)
		default:
			obj = domain.NewImage(f.Name, f.FolderID, nodeID)
		}
	case domain.TypeFolder:
		nodeID := f.NodeID
		if f.MotherID != 0 {
			if nodeID, err = h.nodeOfFolder(ctx, f.MotherID); err != nil {
				return nil, err
			}
		}
		obj = domain.NewFolder(f.Name, f.MotherID, nodeID)
	case domain.TypeTemplate:
		obj = domain.NewTemplate(f.Name, "", f.NodeID)
	case domain.TypeNode:
		if f.MasterNodeID != 0 {
			node := domain.NewChannel(f.Name, f.Host, f.MasterNodeID)
			if err := apply(node); err != nil {
				return nil, badRequest("%v", err)
			}
			return node, h.channels.CreateChannel(ctx, node)
		}
		obj = domain.NewNode(f.Name, f.Host)
	case domain.TypeSystemUser:
		user := domain.NewSystemUser(f.Login, f.FirstName, f.LastName)
		var rest restmodel.User
		if err := unmarshal(body, &rest); err != nil {
			return nil, err
		}
		rest.Password = ""
		if err := restmodel.ApplyUser(&rest, user); err != nil {
			return nil, badRequest("%v", err)
		}
		return user, h.users.Create(ctx, user, f.Password)
	case domain.TypeUserGroup:
		obj = domain.NewUserGroup(f.Name, f.MotherID)
	}

	if err := apply(obj); err != nil {
		return nil, badRequest("%v", err)
	}
	return obj, h.objects.Create(ctx, obj)
}

// nodeOfFolder returns the master node of the folder's tree
func (h *Handler) nodeOfFolder(ctx context.Context, folderID int) (int, error) {
	if folderID == 0 {
		return 0, badRequest("folderId required")
	}
	obj, err := h.objects.Repository().Get(ctx, domain.TypeFolder, folderID)
	if err != nil {
		return 0, err
	}
	return obj.(*domain.Folder).NodeID, nil
}
