/*
Package router defines the HTTP routes for postboard.

# Endpoints

Health:

	GET /health

JSON API:

	GET    /api/posts[?userId=n] - List posts with their owners
	DELETE /api/posts/{id}       - Delete one post
	POST   /api/posts/reseed     - Reload users.json and posts.json

Dashboard (HTML):

	GET  /posts             - Post list with search, owner filter and stats
	POST /posts/reseed      - Re-seed, then redirect back to /posts
	POST /posts/{id}/delete - Delete, then redirect back to /posts
	GET  /                  - Redirect to /posts

Every route except /health is wrapped in middleware.WithLogging, and the
whole mux in middleware.Recover.
*/
package router
