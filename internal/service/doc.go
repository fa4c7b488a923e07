// Package service implements business logic for contentnode.
//
// This package provides service layers that coordinate between the HTTP handlers
// and the repository layer, implementing business rules, validation, and event
// publishing.
//
// # Services
//
// ObjectService loads objects as seen from the channel of the request context
// and creates, updates and deletes them. Updates always work on an editable
// copy of the stored read-only object.
//
// ChannelService localizes objects into channels, removes localized copies
// and manages disinheritance.
//
// RenderService renders pages with their template and reports the object
// properties the output depends on.
//
// UserService, FileService and DevtoolsService manage users and group
// memberships, binary contents of files, and implementation packages on disk.
//
// # Event System
//
// All writes publish ObjectEvents via EventBus. Objects owning tags publish one
// additional event per tag. Subscribers are the SSE hub and the NATS bridge.
package service
