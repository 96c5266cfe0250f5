// Package auth provides host-backed authentication for the API.
//
// Login checks the password against the shadow database the daemon serves;
// admin rights follow membership of the sudo or wheel group. Sessions are
// HS256 JWTs.
package auth
