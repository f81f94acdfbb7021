// Package users serves account profiles: the caller's own profile behind the
// auth guard, and a public view of any active user.
package users
