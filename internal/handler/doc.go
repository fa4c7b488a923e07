// Package handler implements the HTTP API of the content repository.
//
// Objects are addressed by type name and ID:
//
//	GET    /api/{type}                 list, filtered by folder, node, q, limit, offset
//	POST   /api/{type}                 create from the REST model
//	GET    /api/{type}/{id}            load by numeric or global ID
//	PUT    /api/{type}/{id}            apply the non-zero fields of the REST model
//	DELETE /api/{type}/{id}            delete
//
// Every read accepts a channel query parameter. Objects are then resolved as
// seen from that channel, so localized copies replace their masters and
// disinherited objects are hidden.
//
// # Multichannelling
//
// Localize, unlocalize, disinherit and channels (the variants of an object)
// are sub-resources of an object.
//
// # Responses
//
// Objects are serialized in their REST model. The fill parameter adds
// optional data such as tags or the template. Errors are returned as JSON
// with an {error, details} body and a status derived from the error cause.
//
// Middleware provides panic recovery, CORS, request logging and basic
// authentication.
package handler
