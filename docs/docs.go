// Package docs registers the OpenAPI description served under /swagger.
// The document is maintained by hand and lists the routes with their status
// codes; request and response bodies are described in the handler
// annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a new user", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login", "consumes": ["application/x-www-form-urlencoded", "application/json"], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/auth/request-verify-token": {"post": {"tags": ["auth"], "summary": "Request a verification token", "responses": {"202": {"description": "Accepted"}}}},
        "/auth/verify": {"post": {"tags": ["auth"], "summary": "Verify an account", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/auth/forgot-password": {"post": {"tags": ["auth"], "summary": "Request a password reset", "responses": {"202": {"description": "Accepted"}}}},
        "/auth/reset-password": {"post": {"tags": ["auth"], "summary": "Reset password", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/users/me": {
            "get": {"tags": ["users"], "summary": "Current user profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}},
            "patch": {"tags": ["users"], "summary": "Update current user profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/users": {"get": {"tags": ["users"], "summary": "List users", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/users/{id}": {
            "get": {"tags": ["users"], "summary": "Get user", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "patch": {"tags": ["users"], "summary": "Update user", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["users"], "summary": "Delete user", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}}
        },
        "/posts": {
            "get": {"tags": ["posts"], "summary": "List posts", "parameters": [{"type": "string", "name": "email", "in": "query"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["posts"], "summary": "Publish a post", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "Idempotency-Key", "in": "header"}], "responses": {"201": {"description": "Created"}, "200": {"description": "Replayed"}}}
        },
        "/posts/{id}": {
            "get": {"tags": ["posts"], "summary": "Get a post", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["posts"], "summary": "Delete a post", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Blog API",
	Description:      "Accounts, sessions and posts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
