/*
Package handlers implements the JSON API.

# Endpoints

	GET    /api/posts[?userId=n]  list posts by ascending id, optionally one owner's
	DELETE /api/posts/{id}        delete one post
	POST   /api/posts/reseed      reload users.json and posts.json into the store
	GET    /health                store reachability, query totals, pool stats

# Errors

Every failure body is {"error": "<message>"}. Malformed identifiers are 400
and are rejected before the store is touched. A delete of an id that does
not exist is 404, decided by an explicit existence read. Anything else is
500 with a fixed message; the cause is logged with the operation name and
identifier.
*/
package handlers
