// Package domain defines the content objects managed by contentnode.
//
// Every persistent entity (nodes, folders, pages, templates, files, images,
// constructs, tags, datasources, users, groups) satisfies the NodeObject
// contract: a numeric ID, a cluster-wide GlobalID and a type code.
//
// # Read-only instances
//
// Objects loaded from the repository are read-only. Setters on a read-only
// instance return an error wrapping ErrReadOnly; callers obtain an editable
// instance with CopyObject, modify it and hand it back to the repository.
// Objects built with the New* constructors start out editable.
//
// # Multichannelling
//
// Folders, pages, templates, files and images can exist in several variants
// across a node and its channels. Variants share a channel set ID. The
// Channelling block records the channel a variant lives in and whether it is
// the master. Folders, pages, files and images additionally carry a
// Disinheritance block that hides them from selected channels.
//
// # Tags
//
// Pages own content tags, templates own template tags, and most objects own
// object tags. Tags hold one Value per part of their construct.
//
// The package holds no database or transport code.
package domain
