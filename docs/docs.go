// Package docs registers the OpenAPI document for the chat API with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/chat": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Send one chat message to the inventory assistant",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ChatResponse"}},
                    "400": {"description": "Missing fields", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Unknown user or conversation", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/conversations": {
            "get": {
                "produces": ["application/json"],
                "summary": "List a user's conversations, newest first",
                "parameters": [{"in": "query", "name": "userId", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Conversation"}}}
                }
            }
        },
        "/conversations/{id}/messages": {
            "get": {
                "produces": ["application/json"],
                "summary": "List a conversation's messages in order",
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "query", "name": "userId", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Message"}}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/conversations/{id}": {
            "delete": {
                "summary": "Delete a conversation and its messages",
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "query", "name": "userId", "type": "integer", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "ChatRequest": {
            "type": "object",
            "required": ["userId", "userName", "userRole", "message"],
            "properties": {
                "userId": {"type": "integer"},
                "userName": {"type": "string"},
                "userRole": {"type": "string"},
                "message": {"type": "string"},
                "chatId": {"type": "integer"}
            }
        },
        "ChatResponse": {
            "type": "object",
            "properties": {"response": {"type": "string"}, "chatId": {"type": "integer"}}
        },
        "Conversation": {
            "type": "object",
            "properties": {"id": {"type": "integer"}, "title": {"type": "string"}, "createdAt": {"type": "string", "format": "date-time"}}
        },
        "Message": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "conversationId": {"type": "integer"},
                "role": {"type": "string", "enum": ["user", "ai"]},
                "content": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Inventory assistant API",
	Description:      "Chat with the inventory assistant and browse stored conversations.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
