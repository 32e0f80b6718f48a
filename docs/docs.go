// Package docs регистрирует OpenAPI-описание HTTP API для /swagger.
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
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-KEY",
            "in": "header"
        }
    },
    "security": [{"ApiKeyAuth": []}],
    "paths": {
        "/jobs": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Кластеризация батча изображений",
                "parameters": [
                    {"type": "file", "name": "images", "in": "formData", "required": true}
                ],
                "responses": {
                    "202": {"description": "Задача принята", "schema": {"$ref": "#/definitions/http.SubmitJobResponse"}},
                    "400": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "413": {"description": "Файл слишком большой", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/jobs/{id}/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Статус задачи",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.JobStatusResponse"}},
                    "404": {"description": "Задача не найдена", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/jobs/{id}/groups": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Группы завершённой задачи",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ClusterResult"}},
                    "404": {"description": "Задача не найдена", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Задача ещё выполняется или завершилась ошибкой", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/jobs/{id}/centroids": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Центроиды групп завершённой задачи",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "number"}}}},
                    "404": {"description": "Задача не найдена", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Задача ещё выполняется или завершилась ошибкой", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/search": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["search"],
                "summary": "Ближайшая группа для изображения",
                "parameters": [{"type": "file", "name": "image", "in": "formData", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.SearchResponse"}},
                    "409": {"description": "Индекс пуст", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "422": {"description": "Изображение не декодируется", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "Индекс недоступен", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/index/build": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["index"],
                "summary": "Перестроить индекс центроидов",
                "parameters": [{"name": "centroids", "in": "body", "required": true, "schema": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "number"}}}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.BuildIndexResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "422": {"description": "Разная размерность центроидов", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/index/search": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["index"],
                "summary": "Ближайшая группа для вектора",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.SearchVectorRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.SearchResponse"}},
                    "409": {"description": "Индекс пуст", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "422": {"description": "Размерность вектора не совпадает", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.ClusterResult": {
            "type": "object",
            "properties": {
                "ordered_group_names": {"type": "array", "items": {"type": "string"}},
                "group_contents": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "http.SubmitJobResponse": {
            "type": "object",
            "properties": {
                "job_id": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "http.JobStatusResponse": {
            "type": "object",
            "properties": {
                "job_id": {"type": "string"},
                "status": {"type": "string"},
                "image_count": {"type": "integer"},
                "created_at": {"type": "string"},
                "finished_at": {"type": "string"},
                "error": {"type": "string"},
                "index_sync": {"type": "object"},
                "report": {"type": "object"}
            }
        },
        "http.SearchResponse": {
            "type": "object",
            "properties": {"group": {"type": "string"}}
        },
        "http.SearchVectorRequest": {
            "type": "object",
            "properties": {"imageVector": {"type": "array", "items": {"type": "number"}}}
        },
        "http.BuildIndexResponse": {
            "type": "object",
            "properties": {"groups": {"type": "integer"}}
        }
    }
}`

// SwaggerInfo содержит экспортируемую информацию Swagger, чтобы клиенты могли изменять её.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "imgcluster API",
	Description:      "Группировка изображений по визуальному сходству и поиск ближайшей группы.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
