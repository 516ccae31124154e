// Package docs registers the eigend OpenAPI document with swag so the
// Swagger UI (built with -tags=swagger) can serve it.
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
        "/status": {"get": {"tags": ["system"], "summary": "Inference server lifecycle and active downloads", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}}},
        "/readyz": {"get": {"tags": ["system"], "summary": "Readiness of the inference server", "responses": {"200": {"description": "ready"}, "503": {"description": "loading"}}}},
        "/events": {"get": {"tags": ["system"], "summary": "Websocket stream of UI events", "responses": {"101": {"description": "Switching Protocols"}}}},
        "/models": {"get": {"tags": ["models"], "summary": "List catalog and legacy models", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}}}},
        "/models/current": {"get": {"tags": ["models"], "summary": "Current model", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.CurrentModelResponse"}}}}},
        "/models/{id}/switch": {"post": {"tags": ["models"], "summary": "Restart the inference server with a model", "parameters": [{"$ref": "#/parameters/modelID"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.CurrentModelResponse"}}, "404": {"$ref": "#/responses/error"}, "409": {"$ref": "#/responses/error"}, "503": {"$ref": "#/responses/error"}}}},
        "/models/{id}/download": {
            "post": {"tags": ["models"], "summary": "Start downloading a catalog model", "parameters": [{"$ref": "#/parameters/modelID"}], "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.DownloadResponse"}}, "404": {"$ref": "#/responses/error"}, "409": {"$ref": "#/responses/error"}}},
            "delete": {"tags": ["models"], "summary": "Cancel a download", "parameters": [{"$ref": "#/parameters/modelID"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.CancelResponse"}}}}
        },
        "/models/{id}": {"delete": {"tags": ["models"], "summary": "Delete a downloaded model", "parameters": [{"$ref": "#/parameters/modelID"}], "responses": {"204": {"description": "No Content"}, "409": {"$ref": "#/responses/error"}}}},
        "/chats": {
            "get": {"tags": ["chats"], "summary": "List conversations", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ChatsResponse"}}}},
            "post": {"tags": ["chats"], "summary": "Create a conversation", "produces": ["application/json"], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/types.NewChatResponse"}}}}
        },
        "/chats/{id}": {
            "patch": {"tags": ["chats"], "summary": "Rename a conversation", "consumes": ["application/json"], "parameters": [{"$ref": "#/parameters/chatID"}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/types.RenameChatRequest"}}], "responses": {"204": {"description": "No Content"}, "404": {"$ref": "#/responses/error"}}},
            "delete": {"tags": ["chats"], "summary": "Delete a conversation", "parameters": [{"$ref": "#/parameters/chatID"}], "responses": {"204": {"description": "No Content"}}}
        },
        "/chats/{id}/messages": {"get": {"tags": ["chats"], "summary": "Messages of a conversation", "parameters": [{"$ref": "#/parameters/chatID"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.MessagesResponse"}}}}},
        "/chats/{id}/turns": {"post": {"tags": ["chats"], "summary": "Run one turn; deltas stream over /events", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [{"$ref": "#/parameters/chatID"}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/types.TurnRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.TurnResponse"}}, "400": {"$ref": "#/responses/error"}, "500": {"$ref": "#/responses/error"}}}},
        "/chats/{id}/cancel": {"post": {"tags": ["chats"], "summary": "Cancel the turn of a conversation", "parameters": [{"$ref": "#/parameters/chatID"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.CancelResponse"}}}}},
        "/chats/{id}/title": {"post": {"tags": ["chats"], "summary": "Generate a title from the first prompt", "parameters": [{"$ref": "#/parameters/chatID"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.TitleResponse"}}}}},
        "/generation/cancel": {"post": {"tags": ["chats"], "summary": "Cancel every running turn", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.CancelResponse"}}}}},
        "/settings": {
            "get": {"tags": ["settings"], "summary": "Current settings", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["settings"], "summary": "Replace and persist settings", "consumes": ["application/json"], "responses": {"200": {"description": "OK"}, "400": {"$ref": "#/responses/error"}}}
        },
        "/settings/reset": {"post": {"tags": ["settings"], "summary": "Restore default settings", "responses": {"200": {"description": "OK"}}}},
        "/tools": {"get": {"tags": ["tools"], "summary": "Built-in tools with their enabled flag", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ToolsResponse"}}}}},
        "/tools/{id}": {"put": {"tags": ["tools"], "summary": "Enable or disable a tool", "consumes": ["application/json"], "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/types.ToggleToolRequest"}}], "responses": {"204": {"description": "No Content"}, "404": {"$ref": "#/responses/error"}}}}
    },
    "parameters": {
        "modelID": {"in": "path", "name": "id", "required": true, "type": "string", "description": "Catalog model id or legacy"},
        "chatID": {"in": "path", "name": "id", "required": true, "type": "string", "description": "Conversation id"}
    },
    "responses": {
        "error": {"description": "Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
    },
    "definitions": {
        "types.ErrorResponse": {"type": "object", "properties": {"error": {"type": "string", "example": "invalid JSON body"}, "code": {"type": "integer", "example": 400}}},
        "types.StatusResponse": {"type": "object", "properties": {"state": {"type": "string", "example": "ready"}, "ready": {"type": "boolean"}, "model_id": {"type": "string"}, "pid": {"type": "integer"}, "server_address": {"type": "string"}, "last_error": {"type": "string"}, "downloads": {"type": "array", "items": {"type": "string"}}, "uptime_seconds": {"type": "integer"}, "server_time_unix": {"type": "integer"}}},
        "types.ModelInfo": {"type": "object", "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "description": {"type": "string"}, "size_label": {"type": "string"}, "size_bytes": {"type": "integer"}, "status": {"type": "string", "enum": ["downloading", "downloaded", "not_downloaded"]}, "download_percent": {"type": "number"}, "is_current": {"type": "boolean"}}},
        "types.ModelsResponse": {"type": "object", "properties": {"models": {"type": "array", "items": {"$ref": "#/definitions/types.ModelInfo"}}}},
        "types.CurrentModelResponse": {"type": "object", "properties": {"model_id": {"type": "string"}, "ready": {"type": "boolean"}}},
        "types.DownloadResponse": {"type": "object", "properties": {"model_id": {"type": "string"}, "status": {"type": "string"}}},
        "types.CancelResponse": {"type": "object", "properties": {"cancelled": {"type": "boolean"}}},
        "types.NewChatResponse": {"type": "object", "properties": {"id": {"type": "string"}}},
        "types.ChatListItem": {"type": "object", "properties": {"id": {"type": "string"}, "title": {"type": "string"}, "preview": {"type": "string"}, "updated_at": {"type": "integer"}}},
        "types.ChatsResponse": {"type": "object", "properties": {"chats": {"type": "array", "items": {"$ref": "#/definitions/types.ChatListItem"}}}},
        "types.ChatMessage": {"type": "object", "properties": {"id": {"type": "string"}, "role": {"type": "string"}, "content": {"type": "string"}, "thinking": {"type": "string"}, "images": {"type": "array", "items": {"type": "string"}}, "created_at": {"type": "integer"}, "duration_ms": {"type": "integer"}}},
        "types.MessagesResponse": {"type": "object", "properties": {"messages": {"type": "array", "items": {"$ref": "#/definitions/types.ChatMessage"}}}},
        "types.RenameChatRequest": {"type": "object", "required": ["title"], "properties": {"title": {"type": "string"}}},
        "types.TurnRequest": {"type": "object", "required": ["prompt"], "properties": {"prompt": {"type": "string"}, "images": {"type": "array", "items": {"type": "string"}}}},
        "types.TurnResponse": {"type": "object", "properties": {"content": {"type": "string"}, "thinking": {"type": "string"}, "duration_ms": {"type": "integer"}, "cancelled": {"type": "boolean"}}},
        "types.TitleResponse": {"type": "object", "properties": {"title": {"type": "string"}}},
        "types.ToolInfo": {"type": "object", "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "description": {"type": "string"}, "icon": {"type": "string"}, "category": {"type": "string"}, "requires_confirmation": {"type": "boolean"}, "enabled": {"type": "boolean"}}},
        "types.ToolsResponse": {"type": "object", "properties": {"tools": {"type": "array", "items": {"$ref": "#/definitions/types.ToolInfo"}}}},
        "types.ToggleToolRequest": {"type": "object", "required": ["enabled"], "properties": {"enabled": {"type": "boolean"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "eigend API",
	Description:      "Local API of the eigend assistant daemon: model lifecycle, downloads, chats and settings.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
