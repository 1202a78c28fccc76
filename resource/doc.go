/*
Package resource serves collections of entities over HTTP with
conditional, content-negotiated responses.

A [Resource] mounted at path /notes registers the following routes on an
[http.ServeMux]:

	GET    /notes       list every entity
	GET    /notes/{id}  get one entity
	POST   /notes       create an entity (201 with Location)
	POST   /notes/{id}  update an entity (200)
	DELETE /notes/{id}  delete an entity (204)

The write routes are only registered if the underlying store is a [Store]
rather than a mere [ReadOnlyStore]. Read responses go through a
[conditional.Negotiator], so they carry an entity tag and honour
If-Match and If-None-Match.

Errors map to statuses as follows: [ErrNotFound] yields 404;
a [*StoreError] yields 409 for writes and 400 for reads; any other error
yields 500 along with a reference that also appears in the server logs.
A write request without an entity yields 400 with body MISSING_ENTITY.
*/
package resource
