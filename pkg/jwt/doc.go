// Package jwt verifies the bearer tokens issued by the identity provider in
// front of the web app, using github.com/golang-jwt/jwt/v5.
//
// Only HS256 with the shared AUTH_JWT_SECRET is accepted and tokens must
// carry exp and sub. Middleware puts the verified Claims in the request
// context; handlers read the caller id with Subject.
package jwt
