// Package signup is a small user registration backend.
//
// It serves the endpoint the storefront registers against: POST /api/users
// takes {username, email, password}, stores the user with a bcrypt hash and
// answers 201 with the user and a signed token, also set as the "jwt" cookie.
// Failures answer 400 with {"message": ...}. It keeps users in memory and is
// meant for local development and end-to-end tests.
package signup
