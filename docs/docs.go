// Package docs holds the OpenAPI description served at /swagger/*.
// Regenerate with: swag init -g cmd/api/main.go --parseInternal
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
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a new user", "responses": {"201": {"description": "Created"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login", "responses": {"200": {"description": "OK"}}}},
        "/auth/register-admin": {"post": {"tags": ["auth"], "summary": "Register an admin", "responses": {"201": {"description": "Created"}}}},
        "/auth/me": {"get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Current user", "responses": {"200": {"description": "OK"}}}},
        "/orders": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "List all orders", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Create an order", "responses": {"201": {"description": "Created"}}}
        },
        "/orders/my-orders": {"get": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "List my orders", "responses": {"200": {"description": "OK"}}}},
        "/orders/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Get an order", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Update an order", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Delete an order", "responses": {"200": {"description": "OK"}}}
        },
        "/orders/{id}/status": {"patch": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Set order status", "responses": {"200": {"description": "OK"}}}},
        "/orders/{id}/cancel": {"delete": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Cancel an order", "responses": {"200": {"description": "OK"}}}},
        "/orders/{id}/history": {"get": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Order history", "responses": {"200": {"description": "OK"}}}},
        "/admin/stats": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "System statistics", "responses": {"200": {"description": "OK"}}}},
        "/health": {"get": {"tags": ["health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Order Management API",
	Description:      "User accounts, JWT authentication and the order lifecycle.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
