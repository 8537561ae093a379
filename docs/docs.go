// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/users": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Create an account",
                "parameters": [
                    {"description": "Email and password", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.credentials"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.User"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/session": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Current session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Sign in",
                "parameters": [
                    {"description": "Email and password", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.credentials"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            },
            "delete": {
                "tags": ["session"],
                "summary": "Sign out",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/items": {
            "get": {
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "List the signed-in user's items, newest first",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/cache.ItemListResult"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Upload a photo and catalog it",
                "parameters": [
                    {"description": "Item fields and local image path", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.NewItem"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.ClothingItem"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/items/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Get one item",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.ClothingItem"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Partially update an item",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.ItemPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.ClothingItem"}}
                }
            },
            "delete": {
                "tags": ["items"],
                "summary": "Delete an item and its stored image",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Current image URL of the item", "name": "image_url", "in": "query"}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Wardrobe summary",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Stats"}}
                }
            }
        },
        "/outfits/{slot}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["outfits"],
                "summary": "Items that fit an outfit slot",
                "parameters": [
                    {"type": "string", "description": "top, bottom or shoes", "name": "slot", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.ClothingItem"}}}
                }
            }
        },
        "/background-removal": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Cut the background out of a local photo",
                "parameters": [
                    {"description": "Local image path", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.backgroundRemovalRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.backgroundRemovalRequest"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        }
    },
    "definitions": {
        "handler.errorPayload": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "reason": {"type": "string"}
                    }
                }
            }
        },
        "handler.credentials": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.sessionResponse": {
            "type": "object",
            "properties": {
                "signed_in": {"type": "boolean"},
                "user_id": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "handler.backgroundRemovalRequest": {
            "type": "object",
            "properties": {
                "image_path": {"type": "string"}
            }
        },
        "model.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "model.ClothingItem": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "image_url": {"type": "string"},
                "name": {"type": "string"},
                "category": {"type": "string"},
                "color": {"type": "string"},
                "occasion": {"type": "array", "items": {"type": "string"}},
                "brand": {"type": "string"},
                "notes": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "model.NewItem": {
            "type": "object",
            "properties": {
                "image_path": {"type": "string"},
                "name": {"type": "string"},
                "category": {"type": "string"},
                "color": {"type": "string"},
                "occasion": {"type": "array", "items": {"type": "string"}},
                "brand": {"type": "string"},
                "notes": {"type": "string"},
                "remove_background": {"type": "boolean"}
            }
        },
        "model.ItemPatch": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "category": {"type": "string"},
                "color": {"type": "string"},
                "occasion": {"type": "array", "items": {"type": "string"}},
                "brand": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "cache.ItemListResult": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/model.ClothingItem"}},
                "status": {"type": "string", "enum": ["idle", "loading", "success", "error"]},
                "stale": {"type": "boolean"},
                "updated_at": {"type": "string"}
            }
        },
        "service.Stats": {
            "type": "object",
            "properties": {
                "items": {"type": "integer"},
                "categories": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Wardrobe API",
	Description:      "Local API over the wardrobe sync core: items, uploads, sessions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
