// Package docs holds the swagger document served at /swagger/.
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
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}}
            }
        },
        "/api/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/detail-lookup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["details"],
                "summary": "Describe products",
                "parameters": [{"description": "Products to describe", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/lookup.DetailRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/lookup.DetailResponse"}},
                    "405": {"description": "Method Not Allowed", "schema": {"$ref": "#/definitions/worker.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/worker.ErrorResponse"}}
                }
            }
        },
        "/api/session": {
            "post": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Open session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/worker.SessionResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/worker.ErrorResponse"}}
                }
            }
        },
        "/api/reload": {
            "post": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Reload products and history",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/worker.SessionResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/worker.ErrorResponse"}}
                }
            }
        },
        "/api/products": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "List products",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/worker.ProductsResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/worker.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Add product",
                "parameters": [{"description": "Product", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/worker.AddProductRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/worker.ProductsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/worker.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/worker.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/worker.ErrorResponse"}}
                }
            }
        },
        "/api/products/{name}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Delete product",
                "parameters": [{"type": "string", "description": "Product name", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/worker.ProductsResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/worker.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/worker.ErrorResponse"}}
                }
            }
        },
        "/api/details": {
            "post": {
                "produces": ["application/json"],
                "tags": ["details"],
                "summary": "Fetch product details",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/worker.DetailsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/worker.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/worker.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/worker.DetailsResponse"}}
                }
            }
        },
        "/api/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["details"],
                "summary": "View history",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/worker.HistoryResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/worker.ErrorResponse"}}
                }
            }
        },
        "/api/events": {
            "get": {
                "produces": ["text/event-stream"],
                "tags": ["session"],
                "summary": "Session change events",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "models.Product": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "price": {"type": "string", "example": "12.50"}}
        },
        "models.ViewHistoryEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "userId": {"type": "string"},
                "productName": {"type": "string"},
                "details": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"}
            }
        },
        "lookup.DetailRequest": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "products": {"type": "array", "items": {"$ref": "#/definitions/models.Product"}}
            }
        },
        "lookup.DetailResponse": {
            "type": "object",
            "properties": {"details": {"type": "string"}, "error": {"type": "string"}}
        },
        "worker.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "worker.AddProductRequest": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "price": {"type": "string", "example": "12.50"}}
        },
        "worker.ProductsResponse": {
            "type": "object",
            "properties": {"products": {"type": "array", "items": {"$ref": "#/definitions/models.Product"}}}
        },
        "worker.HistoryResponse": {
            "type": "object",
            "properties": {"history": {"type": "array", "items": {"$ref": "#/definitions/models.ViewHistoryEntry"}}}
        },
        "worker.DetailsResponse": {
            "type": "object",
            "properties": {
                "details": {"type": "string"},
                "error": {"type": "string"},
                "history": {"type": "array", "items": {"$ref": "#/definitions/models.ViewHistoryEntry"}}
            }
        },
        "worker.SessionResponse": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "state": {"type": "string", "enum": ["unauthenticated", "loading", "ready", "load_failed"]},
                "message": {"type": "string"},
                "products": {"type": "array", "items": {"$ref": "#/definitions/models.Product"}},
                "history": {"type": "array", "items": {"$ref": "#/definitions/models.ViewHistoryEntry"}}
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
	Title:            "skinshelf API",
	Description:      "Skincare shelf manager with AI product detail lookups.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
